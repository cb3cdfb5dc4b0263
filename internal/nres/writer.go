package nres

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"parkan-material/internal/binread"
)

// Entry is one item to be packed by Write. Offset, Length and Index of the
// record are computed; the remaining header fields are copied from Item.
type Entry struct {
	Item
	Data []byte
}

// Write packs entries into an NRes archive. Payloads are stored in order,
// each padded to an 8-byte boundary, followed by the record table.
func Write(w io.Writer, entries []Entry) error {
	var body bytes.Buffer
	records := make([]Item, len(entries))

	off := uint32(headerSize)
	for i, e := range entries {
		if len(e.Type) > typeSize {
			return fmt.Errorf("nres: item %d type %q longer than %d bytes: %w", i, e.Type, typeSize, ErrInvalid)
		}
		rec := e.Item
		rec.Offset = off
		rec.Length = uint32(len(e.Data))
		rec.Index = uint32(i)
		records[i] = rec

		body.Write(e.Data)
		pad := (8 - len(e.Data)%8) % 8
		body.Write(make([]byte, pad))
		off += uint32(len(e.Data) + pad)
	}

	total := headerSize + body.Len() + len(entries)*recordSize

	var out bytes.Buffer
	out.Grow(total)
	out.WriteString(Magic)
	le := binary.LittleEndian
	for _, v := range []uint32{Version, uint32(len(entries)), uint32(total)} {
		out.Write(le.AppendUint32(nil, v))
	}
	out.Write(body.Bytes())

	for i, rec := range records {
		if err := writeRecord(&out, rec); err != nil {
			return fmt.Errorf("nres: item %d: %w", i, err)
		}
	}

	_, err := w.Write(out.Bytes())
	return err
}

func writeRecord(out *bytes.Buffer, rec Item) error {
	typ := make([]byte, typeSize)
	copy(typ, rec.Type)
	out.Write(typ)

	le := binary.LittleEndian
	for _, v := range []uint32{rec.ElementCount, rec.Magic1, rec.Length, rec.ElementSize} {
		out.Write(le.AppendUint32(nil, v))
	}

	name, err := binread.EncodeName(rec.Name, nameSize)
	if err != nil {
		return err
	}
	out.Write(name)

	for _, v := range []uint32{rec.Magic3, rec.Magic4, rec.Magic5, rec.Magic6, rec.Offset, rec.Index} {
		out.Write(le.AppendUint32(nil, v))
	}
	return nil
}

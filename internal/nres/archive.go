// Package nres reads and writes NRes resource archives.
//
// Layout: a 16-byte header ("NRes", version, item count, total length),
// the item payloads, then one 64-byte record per item at the end of the file.
package nres

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"parkan-material/internal/binread"
	"parkan-material/internal/material"
)

const (
	Magic      = "NRes"
	Version    = 0x100
	headerSize = 16
	recordSize = 64
	nameSize   = 20
	typeSize   = 4
)

var (
	// ErrInvalid indicates a malformed archive.
	ErrInvalid = errors.New("invalid nres archive")

	// ErrNotFound indicates no item has the requested name. It matches
	// material.ErrNotFound under errors.Is.
	ErrNotFound = fmt.Errorf("nres: %w", material.ErrNotFound)
)

// Item is one archive record.
type Item struct {
	Type         string // e.g. "MAT0", "TEXM"
	ElementCount uint32 // capability bits for materials
	Magic1       uint32 // format version for materials
	Length       uint32
	ElementSize  uint32
	Name         string
	Magic3       uint32
	Magic4       uint32
	Magic5       uint32
	Magic6       uint32
	Offset       uint32
	Index        uint32
}

// Archive is a parsed NRes file held in memory.
type Archive struct {
	Version uint32
	items   []Item
	data    []byte
	byName  map[string]int
}

// Open reads and parses the archive at path.
func Open(path string) (*Archive, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("nres: read %s: %w", path, err)
	}
	a, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return a, nil
}

// Parse parses an archive held in data. The archive keeps a reference to data.
func Parse(data []byte) (*Archive, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("nres: %d bytes, shorter than header: %w", len(data), ErrInvalid)
	}
	if string(data[:4]) != Magic {
		return nil, fmt.Errorf("nres: bad magic %q: %w", data[:4], ErrInvalid)
	}

	r := binread.New(data[4:headerSize])
	version, _ := r.ReadU32()
	count, _ := r.ReadU32()
	total, _ := r.ReadU32()

	if int64(total) != int64(len(data)) {
		return nil, fmt.Errorf("nres: header length %d, file length %d: %w", total, len(data), ErrInvalid)
	}
	tableSize := int64(count) * recordSize
	if tableSize > int64(len(data)-headerSize) {
		return nil, fmt.Errorf("nres: %d records do not fit: %w", count, ErrInvalid)
	}

	a := &Archive{
		Version: version,
		items:   make([]Item, count),
		data:    data,
		byName:  make(map[string]int, count),
	}

	tableStart := len(data) - int(tableSize)
	r = binread.New(data[tableStart:])
	for i := range a.items {
		it, err := readItem(r)
		if err != nil {
			return nil, fmt.Errorf("nres: record %d: %w", i, err)
		}
		end := int64(it.Offset) + int64(it.Length)
		if int64(it.Offset) < headerSize || end > int64(tableStart) {
			return nil, fmt.Errorf("nres: item %q [%d,%d) outside payload area: %w", it.Name, it.Offset, end, ErrInvalid)
		}
		a.items[i] = it
		key := strings.ToLower(it.Name)
		if _, dup := a.byName[key]; !dup {
			a.byName[key] = i
		}
	}

	return a, nil
}

func readItem(r *binread.Reader) (Item, error) {
	var it Item
	typ, err := r.ReadFixedString(typeSize)
	if err != nil {
		return it, err
	}
	it.Type = typ

	for _, dst := range []*uint32{&it.ElementCount, &it.Magic1, &it.Length, &it.ElementSize} {
		if *dst, err = r.ReadU32(); err != nil {
			return it, err
		}
	}
	if it.Name, err = r.ReadFixedString(nameSize); err != nil {
		return it, err
	}
	for _, dst := range []*uint32{&it.Magic3, &it.Magic4, &it.Magic5, &it.Magic6, &it.Offset, &it.Index} {
		if *dst, err = r.ReadU32(); err != nil {
			return it, err
		}
	}
	return it, nil
}

// Len returns the number of items.
func (a *Archive) Len() int { return len(a.items) }

// Items returns the item records in table order.
func (a *Archive) Items() []Item { return a.items }

// Item returns the record at index.
func (a *Archive) Item(index int) (Item, error) {
	if index < 0 || index >= len(a.items) {
		return Item{}, fmt.Errorf("nres: item %d of %d: %w", index, len(a.items), ErrInvalid)
	}
	return a.items[index], nil
}

// IndexForName returns the index of the first item named name, ignoring case.
func (a *Archive) IndexForName(name string) (int, error) {
	i, ok := a.byName[strings.ToLower(name)]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return i, nil
}

// Data returns the payload bytes of item index.
func (a *Archive) Data(index int) ([]byte, error) {
	it, err := a.Item(index)
	if err != nil {
		return nil, err
	}
	return a.data[it.Offset : it.Offset+it.Length], nil
}

// Payload returns the payload of item index. The access flag is accepted
// for interface compatibility; the archive is always held in memory.
func (a *Archive) Payload(index int, flag int) ([]byte, error) {
	return a.Data(index)
}

// Metadata returns the material metadata of item index: Magic1 holds the
// format version and ElementCount the capability bits.
func (a *Archive) Metadata(index int) (material.Metadata, error) {
	it, err := a.Item(index)
	if err != nil {
		return material.Metadata{}, err
	}
	return material.Metadata{
		FormatVersion:  uint8(it.Magic1),
		CapabilityBits: uint16(it.ElementCount),
	}, nil
}

// Names returns the names of items of type typ, or of all items when typ is empty.
func (a *Archive) Names(typ string) []string {
	var out []string
	for _, it := range a.items {
		if typ == "" || it.Type == typ {
			out = append(out, it.Name)
		}
	}
	return out
}

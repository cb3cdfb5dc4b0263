package material

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// payloadBuilder assembles raw material payloads byte by byte.
type payloadBuilder struct {
	buf bytes.Buffer
}

func (b *payloadBuilder) u8(v ...byte) *payloadBuilder {
	b.buf.Write(v)
	return b
}

func (b *payloadBuilder) u16(v ...uint16) *payloadBuilder {
	for _, x := range v {
		binary.Write(&b.buf, binary.LittleEndian, x)
	}
	return b
}

func (b *payloadBuilder) f32(v float32) *payloadBuilder {
	binary.Write(&b.buf, binary.LittleEndian, math.Float32bits(v))
	return b
}

// stage appends a stage record: 16 colour bytes, power, flag, 16-byte name.
func (b *payloadBuilder) stage(colors [16]byte, power, flag byte, tex string) *payloadBuilder {
	b.buf.Write(colors[:])
	b.buf.WriteByte(power)
	b.buf.WriteByte(flag)
	name := make([]byte, textureNameSize)
	copy(name, tex)
	b.buf.Write(name)
	return b
}

func (b *payloadBuilder) anim(target ChannelMask, loop LoopMode, keys ...AnimationKey) *payloadBuilder {
	b.u16(uint16(target)<<3 | uint16(loop))
	b.u16(uint16(len(keys)))
	for _, k := range keys {
		b.u16(k.StageIndex, k.DurationMs, k.Extra)
	}
	return b
}

func (b *payloadBuilder) bytes() []byte { return b.buf.Bytes() }

type resolveCall struct {
	name string
	mode TextureMode
}

// fakeResolver hands out sequential handles and records every call.
type fakeResolver struct {
	calls   []resolveCall
	missing map[string]bool
	next    TextureHandle
}

func (r *fakeResolver) Resolve(name string, mode TextureMode) (TextureHandle, error) {
	r.calls = append(r.calls, resolveCall{name, mode})
	if r.missing[name] {
		return 0, fmt.Errorf("texture %s: not found", name)
	}
	r.next++
	return r.next, nil
}

type fakeItem struct {
	name    string
	payload []byte
	meta    Metadata
}

// fakeArchive serves items by position and counts payload fetches.
type fakeArchive struct {
	items   []fakeItem
	fetches int
}

func (a *fakeArchive) add(name string, payload []byte, meta Metadata) {
	a.items = append(a.items, fakeItem{name, payload, meta})
}

func (a *fakeArchive) IndexForName(name string) (int, error) {
	for i, it := range a.items {
		if strings.EqualFold(it.name, name) {
			return i, nil
		}
	}
	return -1, ErrNotFound
}

func (a *fakeArchive) Payload(index, flag int) ([]byte, error) {
	if index < 0 || index >= len(a.items) {
		return nil, errors.New("bad index")
	}
	a.fetches++
	return a.items[index].payload, nil
}

func (a *fakeArchive) Metadata(index int) (Metadata, error) {
	if index < 0 || index >= len(a.items) {
		return Metadata{}, errors.New("bad index")
	}
	return a.items[index].meta, nil
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

// simplePayload is a v1 material with one untextured stage and no animations.
func simplePayload(tag byte) []byte {
	var colors [16]byte
	for i := range colors {
		colors[i] = tag
	}
	return new(payloadBuilder).u16(1, 0).stage(colors, 10, 0, "").bytes()
}

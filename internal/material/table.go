package material

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
)

// DefaultCapacity is the table size used when TableOptions.Capacity is zero.
const DefaultCapacity = 1024

// Archive is the resource archive holding material payloads.
type Archive interface {
	// IndexForName returns the item index for name, or an error wrapping
	// ErrNotFound.
	IndexForName(name string) (int, error)
	Payload(index int, flag int) ([]byte, error)
	Metadata(index int) (Metadata, error)
}

// TableOptions controls a Table.
type TableOptions struct {
	// Capacity is the maximum number of descriptors held at once.
	Capacity int
	// Environment is used to derive each descriptor's texture mode.
	Environment Environment
	// Strict rejects descriptors whose animation keys reference missing stages.
	Strict bool
}

func (o *TableOptions) normalize() TableOptions {
	if o == nil {
		return TableOptions{Capacity: DefaultCapacity}
	}
	out := *o
	if out.Capacity <= 0 {
		out.Capacity = DefaultCapacity
	}
	return out
}

// Handle refers to a descriptor acquired from a Table.
type Handle struct {
	slot int
	gen  uint32
}

// Slot returns the table slot the handle refers to.
func (h Handle) Slot() int { return h.slot }

type tableSlot struct {
	desc   *Descriptor
	gen    uint32 // bumped on publish and on reuse after release
	free   bool   // released and available for recycling
	queued bool   // has an entry on the free heap
}

// Table is a fixed-capacity registry of descriptors keyed by archive index.
// A released descriptor stays in its slot, and can be acquired again without
// decoding, until the slot is recycled for another material.
type Table struct {
	mu       sync.Mutex
	archive  Archive
	resolver TextureResolver
	opt      TableOptions

	slots   []tableSlot
	byIndex map[int]int // archive index -> slot, including released slots
	free    slotHeap
}

// NewTable creates an empty table reading from archive.
func NewTable(archive Archive, resolver TextureResolver, opts *TableOptions) *Table {
	o := opts.normalize()
	return &Table{
		archive:  archive,
		resolver: resolver,
		opt:      o,
		byIndex:  make(map[int]int),
	}
}

// AcquireByName returns a handle to the named material, decoding it on
// first use. Every successful call must be paired with Release.
func (t *Table) AcquireByName(name string) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	log := Logger()

	idx, err := t.archive.IndexForName(name)
	if err != nil {
		return Handle{}, fmt.Errorf("material: %q: %w", name, err)
	}
	if idx < 0 {
		return Handle{}, fmt.Errorf("material: %q: %w", name, ErrNotFound)
	}

	if s, ok := t.byIndex[idx]; ok {
		slot := &t.slots[s]
		if slot.desc.RefCount == 0 {
			// A queued heap entry goes stale and is skipped when popped.
			// Handles from before the release stay stale.
			slot.free = false
			slot.gen++
			log.Debug("material reused", "name", name, "index", idx, "slot", s)
		}
		slot.desc.RefCount++
		return Handle{slot: s, gen: slot.gen}, nil
	}

	s, fresh := t.reserve()
	if s < 0 {
		log.Warn("material table full", "name", name, "capacity", t.opt.Capacity)
		return Handle{}, fmt.Errorf("material: %q: %d slots in use: %w", name, t.opt.Capacity, ErrResourceExhausted)
	}

	d, err := t.load(name, idx)
	if err != nil {
		t.unreserve(s, fresh)
		log.Warn("material load failed", "name", name, "index", idx, "err", err)
		return Handle{}, err
	}

	slot := &t.slots[s]
	if old := slot.desc; old != nil {
		delete(t.byIndex, old.IndexInFile)
		log.Debug("material slot recycled", "slot", s, "old", old.Name, "new", name)
	}
	d.Name = name
	d.IndexInFile = idx
	d.RefCount = 1
	slot.desc = d
	slot.gen++
	slot.free = false
	t.byIndex[idx] = s

	log.Debug("material decoded", "name", name, "index", idx, "slot", s,
		"stages", d.StageCount, "animations", d.AnimCount, "version", d.Version)
	return Handle{slot: s, gen: slot.gen}, nil
}

func (t *Table) load(name string, idx int) (*Descriptor, error) {
	payload, err := t.archive.Payload(idx, 1)
	if err != nil {
		return nil, fmt.Errorf("material: %q payload: %w", name, err)
	}
	meta, err := t.archive.Metadata(idx)
	if err != nil {
		return nil, fmt.Errorf("material: %q metadata: %w", name, err)
	}
	d, err := Decode(payload, meta, t.opt.Environment, t.resolver)
	if err != nil {
		return nil, fmt.Errorf("material: %q: %w", name, err)
	}
	if t.opt.Strict {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("material: %q: %w", name, err)
		}
	}
	return d, nil
}

// reserve picks the lowest released slot, else appends a new one while
// under capacity. It returns -1 when the table is full.
func (t *Table) reserve() (slot int, fresh bool) {
	for t.free.Len() > 0 {
		s := heap.Pop(&t.free).(int)
		t.slots[s].queued = false
		if t.slots[s].free {
			return s, false
		}
	}
	if len(t.slots) < t.opt.Capacity {
		t.slots = append(t.slots, tableSlot{})
		return len(t.slots) - 1, true
	}
	return -1, false
}

// unreserve undoes reserve after a failed load.
func (t *Table) unreserve(s int, fresh bool) {
	if fresh {
		t.slots = t.slots[:s]
		return
	}
	t.push(s)
}

// push queues a released slot unless it already has a heap entry, so the
// heap never holds more entries than there are slots.
func (t *Table) push(s int) {
	if t.slots[s].queued {
		return
	}
	t.slots[s].queued = true
	heap.Push(&t.free, s)
}

// lookup returns the live slot for h. Callers hold t.mu.
func (t *Table) lookup(h Handle) (*tableSlot, error) {
	if h.slot < 0 || h.slot >= len(t.slots) {
		return nil, ErrStaleHandle
	}
	slot := &t.slots[h.slot]
	if slot.desc == nil || slot.gen != h.gen || slot.desc.RefCount == 0 {
		return nil, ErrStaleHandle
	}
	return slot, nil
}

// Release drops one reference. When the count reaches zero the slot
// becomes eligible for reuse.
func (t *Table) Release(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.lookup(h)
	if err != nil {
		return fmt.Errorf("material: release slot %d: %w", h.slot, err)
	}
	slot.desc.RefCount--
	if slot.desc.RefCount == 0 {
		slot.free = true
		t.push(h.slot)
	}
	return nil
}

// Get returns the descriptor for h. The descriptor must not be modified.
func (t *Table) Get(h Handle) (*Descriptor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.lookup(h)
	if err != nil {
		return nil, fmt.Errorf("material: get slot %d: %w", h.slot, err)
	}
	return slot.desc, nil
}

// RefCount returns the number of outstanding acquisitions of h's descriptor.
func (t *Table) RefCount(h Handle) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.lookup(h)
	if err != nil {
		return 0
	}
	return slot.desc.RefCount
}

// Len returns the number of slots in use, including released ones.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Live returns the number of descriptors with outstanding references.
func (t *Table) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, s := range t.slots {
		if s.desc != nil && s.desc.RefCount > 0 {
			n++
		}
	}
	return n
}

// Capacity returns the maximum number of descriptors.
func (t *Table) Capacity() int { return t.opt.Capacity }

// IsNotFound reports whether err means the material is absent from the archive.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// slotHeap is a min-heap of released slot indices, so reuse is first-fit.
type slotHeap []int

func (h slotHeap) Len() int           { return len(h) }
func (h slotHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h slotHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *slotHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *slotHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

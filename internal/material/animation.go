package material

import "fmt"

// Sample locates elapsedMs within the animation. Key i's duration is the
// time spent moving from its stage to the next key's stage. It returns the
// two stage indices to blend and the progress between them; ok is false
// when the animation has no keys.
func (a *Animation) Sample(elapsedMs uint32) (from, to int, t float32, ok bool) {
	n := len(a.Keys)
	if n == 0 {
		return 0, 0, 0, false
	}
	first := int(a.Keys[0].StageIndex)
	last := int(a.Keys[n-1].StageIndex)
	if n == 1 {
		return first, first, 0, true
	}

	pos := uint64(elapsedMs)
	forward := a.span(n - 1)

	switch a.Loop {
	case LoopClamp:
		if pos >= forward {
			return last, last, 0, true
		}
		from, to, t = a.walk(pos, n-1)
	case LoopPingPong:
		if forward == 0 {
			return first, first, 0, true
		}
		pos %= 2 * forward
		if pos > forward {
			pos = 2*forward - pos
		}
		if pos == forward {
			return last, last, 0, true
		}
		from, to, t = a.walk(pos, n-1)
	default:
		// Random playback order is chosen by the caller; sampling a
		// single pass behaves like repeat.
		cycle := a.span(n)
		if cycle == 0 {
			return first, first, 0, true
		}
		from, to, t = a.walk(pos%cycle, n)
	}
	return from, to, t, true
}

// span sums the durations of the first segs keys.
func (a *Animation) span(segs int) uint64 {
	var total uint64
	for _, k := range a.Keys[:segs] {
		total += uint64(k.DurationMs)
	}
	return total
}

// walk finds the segment containing pos among the first segs segments.
// Segment i runs from key i to key (i+1) mod len(Keys).
func (a *Animation) walk(pos uint64, segs int) (from, to int, t float32) {
	n := len(a.Keys)
	for i := 0; i < segs; i++ {
		d := uint64(a.Keys[i].DurationMs)
		if pos < d {
			from = int(a.Keys[i].StageIndex)
			to = int(a.Keys[(i+1)%n].StageIndex)
			return from, to, float32(pos) / float32(d)
		}
		pos -= d
	}
	last := int(a.Keys[segs%n].StageIndex)
	return last, last, 0
}

// Animate returns the blended stage snapshot for animation anim at
// elapsedMs. Key stage indices are bounds-checked here even when the
// descriptor was decoded without validation.
func (d *Descriptor) Animate(anim int, elapsedMs uint32) (Stage, error) {
	if anim < 0 || anim >= len(d.Animations) {
		return Stage{}, fmt.Errorf("material: animation %d of %d: %w", anim, len(d.Animations), ErrAnimationIndex)
	}
	a := &d.Animations[anim]
	from, to, t, ok := a.Sample(elapsedMs)
	if !ok {
		if len(d.Stages) == 0 {
			return Stage{}, fmt.Errorf("material: animation %d has no keys and no stages: %w", anim, ErrStageIndex)
		}
		return d.Stages[0], nil
	}
	for _, idx := range [2]int{from, to} {
		if idx >= len(d.Stages) {
			return Stage{}, fmt.Errorf("material: animation %d: stage %d of %d: %w", anim, idx, len(d.Stages), ErrStageIndex)
		}
	}

	snap := Blend(&d.Stages[from], &d.Stages[to], t, a.Target)
	if _, bound := d.Stages[to].Texture.Handle(); bound {
		snap.BindCurrent(d.Stages[to].Texture)
	}
	return snap, nil
}

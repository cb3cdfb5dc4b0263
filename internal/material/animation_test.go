package material

import (
	"errors"
	"testing"
)

func TestAnimationSample(t *testing.T) {
	keys := []AnimationKey{
		{StageIndex: 0, DurationMs: 100},
		{StageIndex: 1, DurationMs: 200},
		{StageIndex: 2, DurationMs: 100},
	}

	type sample struct {
		ms       uint32
		from, to int
		t        float32
	}
	tests := []struct {
		loop    LoopMode
		samples []sample
	}{
		{LoopRepeat, []sample{
			{0, 0, 1, 0},
			{50, 0, 1, 0.5},
			{100, 1, 2, 0},
			{250, 1, 2, 0.75},
			{350, 2, 0, 0.5}, // last key wraps to the first
			{400, 0, 1, 0},
			{450, 0, 1, 0.5},
		}},
		{LoopClamp, []sample{
			{50, 0, 1, 0.5},
			{299, 1, 2, 0.995},
			{300, 2, 2, 0},
			{10000, 2, 2, 0},
		}},
		{LoopPingPong, []sample{
			{50, 0, 1, 0.5},
			{300, 2, 2, 0},
			{400, 1, 2, 0.5}, // 100 ms back from the end
			{550, 0, 1, 0.5},
			{600, 0, 1, 0},
			{650, 0, 1, 0.5},
		}},
		{LoopRandom, []sample{
			{350, 2, 0, 0.5},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.loop.String(), func(t *testing.T) {
			a := Animation{Loop: tt.loop, Keys: keys}
			for _, s := range tt.samples {
				from, to, tv, ok := a.Sample(s.ms)
				if !ok {
					t.Fatalf("ms=%d: ok = false", s.ms)
				}
				if from != s.from || to != s.to || !near(tv, s.t) {
					t.Errorf("ms=%d: got (%d,%d,%v), want (%d,%d,%v)", s.ms, from, to, tv, s.from, s.to, s.t)
				}
			}
		})
	}
}

func TestAnimationSampleDegenerate(t *testing.T) {
	var empty Animation
	if _, _, _, ok := empty.Sample(10); ok {
		t.Error("empty animation: ok = true")
	}

	single := Animation{Keys: []AnimationKey{{StageIndex: 4, DurationMs: 100}}}
	if from, to, tv, ok := single.Sample(70); !ok || from != 4 || to != 4 || tv != 0 {
		t.Errorf("single key = (%d,%d,%v,%v)", from, to, tv, ok)
	}

	for _, loop := range []LoopMode{LoopRepeat, LoopClamp, LoopPingPong} {
		zero := Animation{Loop: loop, Keys: []AnimationKey{{StageIndex: 1}, {StageIndex: 2}}}
		from, _, tv, ok := zero.Sample(500)
		if !ok || tv != 0 {
			t.Errorf("%v zero durations: (%d,%v,%v)", loop, from, tv, ok)
		}
	}
}

func TestDescriptorAnimate(t *testing.T) {
	a, b := testStages()
	b.Texture = BoundTexture(9)
	d := &Descriptor{
		Stages: []Stage{a, b},
		Animations: []Animation{
			{Target: ChannelDiffuse, Loop: LoopRepeat, Keys: []AnimationKey{{0, 100, 0}, {1, 100, 0}}},
			{Target: ChannelAll, Keys: []AnimationKey{{0, 100, 0}, {5, 100, 0}}},
			{Target: ChannelAll},
		},
	}

	snap, err := d.Animate(0, 50)
	if err != nil {
		t.Fatalf("Animate: %v", err)
	}
	if !near(snap.Diffuse.R, 0.5) || !near(snap.Diffuse.G, 0.5) {
		t.Errorf("diffuse = %+v, want halfway", snap.Diffuse)
	}
	if snap.Specular != a.Specular {
		t.Errorf("specular = %+v, want src1 %+v", snap.Specular, a.Specular)
	}
	if h, ok := snap.Current.Handle(); !ok || h != 9 {
		t.Errorf("current texture = %d, %v; want 9", h, ok)
	}

	if _, err := d.Animate(1, 10); !errors.Is(err, ErrStageIndex) {
		t.Errorf("bad key stage: err = %v, want ErrStageIndex", err)
	}
	if _, err := d.Animate(3, 0); !errors.Is(err, ErrAnimationIndex) {
		t.Errorf("bad animation: err = %v, want ErrAnimationIndex", err)
	}

	snap, err = d.Animate(2, 0)
	if err != nil {
		t.Fatalf("keyless animation: %v", err)
	}
	if snap.Power != a.Power {
		t.Errorf("keyless animation power = %v, want first stage %v", snap.Power, a.Power)
	}
}

func TestBindCurrentKeepsNone(t *testing.T) {
	s := Stage{Texture: NoTexture(), Current: NoTexture()}
	s.BindCurrent(BoundTexture(1))
	if !s.Current.IsNone() {
		t.Errorf("untextured stage current = %+v, want none", s.Current)
	}
}

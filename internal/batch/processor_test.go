package batch

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/webp"

	"parkan-material/internal/material"
	"parkan-material/internal/nres"
	"parkan-material/internal/texture"
)

func stage(r, g, b float32, tex string) material.Stage {
	return material.Stage{
		Ambient:     material.Color{R: r, G: g, B: b, A: 1},
		Diffuse:     material.Color{R: r, G: g, B: b, A: 1},
		Specular:    material.Color{A: 1},
		Emissive:    material.Color{A: 1},
		Power:       20,
		TextureName: tex,
	}
}

func encode(t *testing.T, d *material.Descriptor) []byte {
	t.Helper()
	data, err := material.Encode(d)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// fixture packs a material archive and a texture directory.
func fixture(t *testing.T) (*nres.Archive, *texture.Cache) {
	t.Helper()
	dir := t.TempDir()

	tex := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range tex.Pix {
		tex.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, tex); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "rock.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	glow := &material.Descriptor{
		Version: 1,
		Stages:  []material.Stage{stage(1, 0, 0, "rock"), stage(0, 0, 1, "rock.tga")},
		Animations: []material.Animation{{
			Target: material.ChannelAll,
			Loop:   material.LoopPingPong,
			Keys:   []material.AnimationKey{{StageIndex: 0, DurationMs: 100}, {StageIndex: 1, DurationMs: 100}},
		}},
	}
	plain := &material.Descriptor{Version: 4, Stages: []material.Stage{stage(0.5, 0.5, 0.5, "rock")}}
	broken := &material.Descriptor{
		Version: 1,
		Stages:  []material.Stage{stage(1, 1, 1, "")},
		Animations: []material.Animation{{
			Keys: []material.AnimationKey{{StageIndex: 0, DurationMs: 10}, {StageIndex: 5, DurationMs: 10}},
		}},
	}

	buf.Reset()
	err := nres.Write(&buf, []nres.Entry{
		{Item: nres.Item{Type: "MAT0", Name: "glow", Magic1: 1}, Data: encode(t, glow)},
		{Item: nres.Item{Type: "MAT0", Name: "plain", Magic1: 4}, Data: encode(t, plain)},
		{Item: nres.Item{Type: "MAT0", Name: "broken", Magic1: 1}, Data: encode(t, broken)},
	})
	if err != nil {
		t.Fatal(err)
	}
	arc, err := nres.Parse(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return arc, texture.NewCache(texture.BuildIndex(dir))
}

func TestRun(t *testing.T) {
	var logs bytes.Buffer
	prev := material.Logger()
	material.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	defer material.SetLogger(prev)

	arc, cache := fixture(t)
	tbl := material.NewTable(arc, cache, nil)
	out := t.TempDir()

	cfg := Config{
		Table:       tbl,
		Textures:    cache,
		OutputDir:   out,
		SwatchSize:  8,
		Supersample: 1,
		Frames:      4,
		FrameStep:   50 * time.Millisecond,
		Workers:     2,
	}
	results := Run(cfg, []string{"glow", "PLAIN", "broken", "lava"})

	want := []struct {
		ok     bool
		frames int
		errSub string
	}{
		{true, 4, ""},
		{true, 1, ""},
		{false, 0, "stage index"},
		{false, 0, "not found"},
	}
	for i, w := range want {
		r := results[i]
		if r.Success != w.ok || r.Frames != w.frames {
			t.Errorf("%s: success=%v frames=%d, want %v %d (err %q)", r.Name, r.Success, r.Frames, w.ok, w.frames, r.Error)
		}
		if w.errSub != "" && !strings.Contains(r.Error, w.errSub) {
			t.Errorf("%s: error %q, want %q", r.Name, r.Error, w.errSub)
		}
	}

	f, err := os.Open(filepath.Join(out, "glow.webp"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	wc, err := webp.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode glow.webp: %v", err)
	}
	if wc.Width != 32 || wc.Height != 8 {
		t.Errorf("glow strip = %dx%d, want 32x8", wc.Width, wc.Height)
	}

	if tbl.Live() != 0 {
		t.Errorf("Live = %d after run, want all released", tbl.Live())
	}
	if strings.Contains(logs.String(), "release failed") {
		t.Errorf("unexpected release warning:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "name=broken") {
		t.Errorf("failed material not logged:\n%s", logs.String())
	}

	mpath := filepath.Join(out, "manifest.json")
	if err := WriteManifest(mpath, results); err != nil {
		t.Fatal(err)
	}
	var m Manifest
	data, _ := os.ReadFile(mpath)
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m.Total != 4 || m.Succeeded != 2 || m.Results[1].Image != "PLAIN.webp" {
		t.Errorf("manifest = %+v", m)
	}
}

func TestRenderFramesUsesAnimatedTexture(t *testing.T) {
	arc, cache := fixture(t)
	tbl := material.NewTable(arc, cache, nil)
	h, err := tbl.AcquireByName("glow")
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Release(h)
	d, _ := tbl.Get(h)

	cfg := Config{Textures: cache, SwatchSize: 8, Supersample: 1, Frames: 3, FrameStep: 50 * time.Millisecond}
	frames, err := RenderFrames(cfg, d)
	if err != nil {
		t.Fatal(err)
	}

	// Frame 0 sits on the red stage; frame 2 (100 ms) reaches the blue one.
	if got := frames[0].NRGBAAt(1, 1); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("frame 0 ambient = %v", got)
	}
	if got := frames[2].NRGBAAt(1, 1); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("frame 2 ambient = %v", got)
	}
	// Halfway the target stage's texture is tinted by the blended diffuse.
	if got := frames[1].NRGBAAt(4, 6); got != (color.NRGBA{128, 0, 128, 255}) {
		t.Errorf("frame 1 tile = %v", got)
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"rock":    "rock",
		`a\b/c:d`: "a_b_c_d",
		"":        "_",
		"Камень?": "Камень_",
	}
	for in, want := range tests {
		if got := SafeName(in); got != want {
			t.Errorf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}

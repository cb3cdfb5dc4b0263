package batch

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"parkan-material/internal/material"
	"parkan-material/internal/swatch"
)

// Images returns decoded textures for handles issued during decoding.
type Images interface {
	Image(h material.TextureHandle) *image.NRGBA
}

// Config holds all shared resources for a batch run.
type Config struct {
	Table       *material.Table
	Textures    Images // may be nil: swatches are drawn untextured
	OutputDir   string
	SwatchSize  int
	Supersample int
	Frames      int
	FrameStep   time.Duration
	Workers     int
}

// Result holds the outcome of processing one material.
type Result struct {
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	Version    uint8  `json:"version"`
	Stages     int    `json:"stages"`
	Animations int    `json:"animations"`
	Frames     int    `json:"frames"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

var errNoStages = errors.New("material has no stages")

// Run renders swatch strips for all names using a worker pool.
func Run(cfg Config, names []string) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	total := len(names)
	results := make([]Result, total)
	var processed atomic.Int64
	log := material.Logger()

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					log.Info("progress", "done", p, "total", total,
						"rate", fmt.Sprintf("%.1f/s", float64(p)/elapsed))
				}
			}
		}
	}()

	// Worker pool
	work := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = processMaterial(cfg, names[idx])
				if !results[idx].Success {
					log.Warn("material failed", "name", names[idx], "err", results[idx].Error)
				}
				processed.Add(1)
			}
		}()
	}

	for i := range names {
		work <- i
	}
	close(work)

	wg.Wait()
	close(done)

	return results
}

func processMaterial(cfg Config, name string) Result {
	res := Result{Name: name}

	h, err := cfg.Table.AcquireByName(name)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer func() {
		if err := cfg.Table.Release(h); err != nil {
			material.Logger().Warn("material release failed", "name", name, "err", err)
		}
	}()

	d, err := cfg.Table.Get(h)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Version = d.Version
	res.Stages = d.StageCount
	res.Animations = d.AnimCount

	frames, err := RenderFrames(cfg, d)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Frames = len(frames)

	rel := SafeName(name) + ".webp"
	if err := writeWebP(filepath.Join(cfg.OutputDir, rel), swatch.Strip(frames)); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Image = rel
	res.Success = true
	return res
}

// RenderFrames draws the first animation of d sampled every FrameStep, or a
// single swatch of the first stage when d is not animated.
func RenderFrames(cfg Config, d *material.Descriptor) ([]*image.NRGBA, error) {
	if len(d.Stages) == 0 {
		return nil, errNoStages
	}
	if len(d.Animations) == 0 || len(d.Animations[0].Keys) == 0 || cfg.Frames <= 1 {
		st := d.Stages[0]
		return []*image.NRGBA{renderStage(cfg, &st)}, nil
	}

	frames := make([]*image.NRGBA, cfg.Frames)
	step := uint32(cfg.FrameStep / time.Millisecond)
	for i := range frames {
		st, err := d.Animate(0, uint32(i)*step)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames[i] = renderStage(cfg, &st)
	}
	return frames, nil
}

func renderStage(cfg Config, st *material.Stage) *image.NRGBA {
	var tex *image.NRGBA
	if cfg.Textures != nil {
		th, ok := st.Current.Handle()
		if !ok {
			th, ok = st.Texture.Handle()
		}
		if ok {
			tex = cfg.Textures.Image(th)
		}
	}
	return swatch.Render(st, tex, cfg.SwatchSize, cfg.Supersample)
}

func writeWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := swatch.EncodeWebP(f, img); err != nil {
		f.Close()
		return fmt.Errorf("WebP encode: %w", err)
	}
	return f.Close()
}

// SafeName maps a material name to a file name.
func SafeName(name string) string {
	out := []rune(name)
	for i, r := range out {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "_"
	}
	return string(out)
}

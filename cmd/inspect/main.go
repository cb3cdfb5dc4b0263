package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"parkan-material/internal/material"
	"parkan-material/internal/nres"
	"parkan-material/internal/texture"
)

// stubResolver hands out handles without loading anything.
type stubResolver struct {
	names []string
}

func (r *stubResolver) Resolve(name string, mode material.TextureMode) (material.TextureHandle, error) {
	r.names = append(r.names, name)
	return material.TextureHandle(len(r.names)), nil
}

func main() {
	texDir := flag.String("textures", "", "Resolve textures against this directory (default: names only)")
	at := flag.Int("at", -1, "Also print every animation sampled at this time in ms")
	bump := flag.Bool("bump", false, "Decode with bump mapping enabled")
	list := flag.Bool("list", false, "List archive items and exit")
	debug := flag.Bool("debug", false, "Log table activity")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [flags] archive.lib [material...]")
		os.Exit(2)
	}
	if *debug {
		material.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	arc, err := nres.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *list {
		fmt.Printf("%s: NRes version %#x, %d items\n", flag.Arg(0), arc.Version, arc.Len())
		for i, it := range arc.Items() {
			fmt.Printf("  [%4d] %-4s %-20q len=%-7d elems=%#06x magic1=%d\n",
				i, it.Type, it.Name, it.Length, it.ElementCount, it.Magic1)
		}
		return
	}

	var res material.TextureResolver = &stubResolver{}
	if *texDir != "" {
		idx := texture.BuildIndex(*texDir)
		fmt.Printf("Textures: %d indexed\n", idx.Len())
		res = texture.NewCache(idx)
	}

	names := flag.Args()[1:]
	if len(names) == 0 {
		names = arc.Names("MAT0")
	}

	table := material.NewTable(arc, res, &material.TableOptions{
		Environment: material.Environment{BumpMapping: *bump, TextureMode6: *bump},
	})

	failed := 0
	for _, name := range names {
		h, err := table.AcquireByName(name)
		if err != nil {
			fmt.Printf("\n=== %s: %v\n", name, err)
			failed++
			continue
		}
		if d, err := table.Get(h); err != nil {
			fmt.Printf("\n=== %s: %v\n", name, err)
			failed++
		} else {
			printDescriptor(d)
			if *at >= 0 {
				printSnapshots(d, uint32(*at))
			}
		}
		if err := table.Release(h); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: release %s: %v\n", name, err)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func printDescriptor(d *material.Descriptor) {
	c := d.Capabilities
	fmt.Printf("\n=== %s (index=%d version=%d stages=%d animations=%d) ===\n",
		d.Name, d.IndexInFile, d.Version, d.StageCount, d.AnimCount)
	fmt.Printf("  caps: bits=%#04x special=%v bump=%v render=%d extra=%v mode=%#x\n",
		c.Bits(), c.SpecialTextureClass, c.SupportsBumpMapping, c.RenderingType, c.ExtraMetadata, uint32(c.TextureMode))
	e := d.Extras
	fmt.Printf("  blend: src=%d dst=%d alpha×%.3f emissive×%.3f\n",
		e.SourceBlend, e.DestBlend, e.AlphaMultiplier, e.EmissiveIntensity)

	for i := range d.Stages {
		s := &d.Stages[i]
		tex := "none"
		if h, ok := s.Texture.Handle(); ok {
			tex = fmt.Sprintf("%q → #%d", s.TextureName, h)
		}
		fmt.Printf("  Stage[%d] power=%.0f flag=%d texture=%s\n", i, s.Power, s.TextureStageIndex, tex)
		fmt.Printf("    ambient  %s\n    diffuse  %s\n    specular %s\n    emissive %s\n",
			fmtColor(s.Ambient), fmtColor(s.Diffuse), fmtColor(s.Specular), fmtColor(s.Emissive))
	}

	for i, a := range d.Animations {
		keys := make([]string, len(a.Keys))
		total := 0
		for k, key := range a.Keys {
			keys[k] = fmt.Sprintf("%d:%dms", key.StageIndex, key.DurationMs)
			total += int(key.DurationMs)
		}
		fmt.Printf("  Anim[%d] target=%s loop=%s cycle=%dms keys=[%s]\n",
			i, a.Target, a.Loop, total, strings.Join(keys, " "))
	}
}

func printSnapshots(d *material.Descriptor, ms uint32) {
	for i := range d.Animations {
		s, err := d.Animate(i, ms)
		if err != nil {
			fmt.Printf("  @%dms Anim[%d]: %v\n", ms, i, err)
			continue
		}
		fmt.Printf("  @%dms Anim[%d]: diffuse %s ambient %s\n", ms, i, fmtColor(s.Diffuse), fmtColor(s.Ambient))
	}
}

func fmtColor(c material.Color) string {
	return fmt.Sprintf("(%.3f %.3f %.3f %.3f)", c.R, c.G, c.B, c.A)
}

package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"parkan-material/internal/batch"
	"parkan-material/internal/nres"
	"parkan-material/internal/texture"
)

// writePNG writes img to dst.
func writePNG(img image.Image, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return f.Close()
}

// dumpTexture decodes one TEXM payload and writes it as PNG.
func dumpTexture(data []byte, dst string) error {
	hdr, err := texture.ParseTexmHeader(data)
	if err != nil {
		return err
	}
	img, err := texture.DecodeTexm(data)
	if err != nil {
		return err
	}
	if err := writePNG(img, dst); err != nil {
		return err
	}
	fmt.Printf("OK  %s  %dx%d format=%d mips=%d\n", filepath.Base(dst), hdr.Width, hdr.Height, hdr.Format, hdr.MipCount)
	return nil
}

// dumpFile converts a loose texture file (TGA, BMP, PNG, JPEG or TEXM).
func dumpFile(src, out string) error {
	img, err := texture.LoadTexture(src)
	if err != nil {
		return err
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(out, stem+".png")
	if err := writePNG(img, dst); err != nil {
		return err
	}
	fmt.Printf("OK  %s  %dx%d\n", filepath.Base(dst), img.Rect.Dx(), img.Rect.Dy())
	return nil
}

func isTextureFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tga", ".bmp", ".png", ".jpg", ".jpeg", ".texm":
		return true
	}
	return false
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: texdump textures.lib|texture-file [outdir]")
		os.Exit(2)
	}
	out := "."
	if len(os.Args) > 2 {
		out = os.Args[2]
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if isTextureFile(os.Args[1]) {
		if err := dumpFile(os.Args[1], out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	arc, err := nres.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for i, it := range arc.Items() {
		if it.Type != "TEXM" {
			continue
		}
		data, err := arc.Data(i)
		if err == nil {
			err = dumpTexture(data, filepath.Join(out, batch.SafeName(it.Name)+".png"))
		}
		if err != nil {
			fmt.Printf("ERR %s: %v\n", it.Name, err)
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

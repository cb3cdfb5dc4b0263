package texture

import (
	"os"
	"path/filepath"
	"strings"

	"parkan-material/internal/nres"
)

// Source looks up raw texture bytes by name. ext is the lower-case format
// tag passed to Decode (".tga", ".bmp", ".png", ".jpg" or ".texm").
type Source interface {
	Lookup(name string) (data []byte, ext string, ok bool)
}

// extRank orders extensions for the same stem; lower wins.
var extRank = map[string]int{
	".tga":  0,
	".png":  1,
	".bmp":  2,
	".jpg":  3,
	".jpeg": 3,
}

// Index maps lowercase texture stems to filesystem paths.
// TGA files take priority over other formats for the same stem (alpha channel).
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for texture images.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		rank, ok := extRank[ext]
		if !ok {
			return nil
		}
		stem := Stem(path)

		existing, exists := idx.entries[stem]
		if !exists || rank < extRank[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// Stem normalizes a texture reference to its lower-case base name without
// extension ("Textures\\Rock01.TGA" → "rock01").
func Stem(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
func (idx *Index) ResolvePath(texName string) (string, bool) {
	path, ok := idx.entries[Stem(texName)]
	return path, ok
}

// Lookup reads the indexed file for name.
func (idx *Index) Lookup(name string) ([]byte, string, bool) {
	path, ok := idx.ResolvePath(name)
	if !ok {
		return nil, "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", false
	}
	return data, strings.ToLower(filepath.Ext(path)), true
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// ArchiveSource serves TEXM items from an NRes texture archive.
type ArchiveSource struct {
	Archive *nres.Archive
}

func (s ArchiveSource) Lookup(name string) ([]byte, string, bool) {
	i, err := s.Archive.IndexForName(name)
	if err != nil {
		// Materials may name textures with an extension the archive lacks.
		if i, err = s.Archive.IndexForName(Stem(name)); err != nil {
			return nil, "", false
		}
	}
	data, err := s.Archive.Data(i)
	if err != nil {
		return nil, "", false
	}
	return data, ".texm", true
}

// Sources tries each source in order.
type Sources []Source

func (ss Sources) Lookup(name string) ([]byte, string, bool) {
	for _, s := range ss {
		if data, ext, ok := s.Lookup(name); ok {
			return data, ext, true
		}
	}
	return nil, "", false
}

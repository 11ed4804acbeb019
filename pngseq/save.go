package pngseq

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/esimov/ikon"
)

// Save stores the sequence at p. Paths ending in .tar or .zip, as well as
// existing regular files, receive an archive. Any other path is treated as a
// directory, where every entry is written as a separate PNG file.
func (s *Sequence) Save(p string) error {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".tar":
		return ikon.WriteFile(p, s.Encode)
	case ".zip":
		return ikon.WriteFile(p, s.EncodeZip)
	}
	if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
		return ikon.WriteFile(p, s.Encode)
	}
	return s.SaveDir(p)
}

// SaveDir writes every entry of the sequence under dir, creating the
// intermediate directories when needed.
func (s *Sequence) SaveDir(dir string) error {
	files, err := s.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := WriteDirFile(dir, f.Path, f.Data); err != nil {
			return err
		}
	}
	return nil
}

// WriteDirFile writes data to the slash separated name relative to dir.
func WriteDirFile(dir, name string, data []byte) error {
	dst := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

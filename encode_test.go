package ikon

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listing is a minimal encoder writing the sizes of its entries.
type listing struct {
	*Family[rectKey]
}

func (l listing) Encode(w io.Writer) error {
	for _, k := range l.Keys() {
		if _, err := fmt.Fprintln(w, k.Size()); err != nil {
			return err
		}
	}
	return nil
}

type dirListing struct {
	listing
	saved string
}

func (d *dirListing) Save(path string) error {
	d.saved = path
	return nil
}

func TestEncode_AddEntries(t *testing.T) {
	src := NewRaster(image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	enc := listing{NewFamily[rectKey](4)}

	var _ Encoder[rectKey] = enc

	err := AddEntries[rectKey](enc, Nearest, src, []rectKey{{8, 8}, {4, 4}, {8, 8}, {2, 2}})
	assert.ErrorIs(t, err, ErrAlreadyIncluded)
	assert.Equal(t, 2, enc.Len())
}

func TestEncode_Save(t *testing.T) {
	src := NewRaster(image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	enc := listing{NewFamily[rectKey](4)}
	require.NoError(t, AddEntries[rectKey](enc, Nearest, src, []rectKey{{8, 8}, {4, 4}}))

	path := filepath.Join(t.TempDir(), "icon.txt")
	require.NoError(t, Save(enc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4x4\n8x8\n", string(data))

	dir := &dirListing{listing: enc}
	require.NoError(t, Save(dir, "somewhere"))
	assert.Equal(t, "somewhere", dir.saved)
}

func TestEncode_WriteFile(t *testing.T) {
	failed := errors.New("encoding failed")
	path := filepath.Join(t.TempDir(), "out.bin")

	err := WriteFile(path, func(io.Writer) error { return failed })
	assert.ErrorIs(t, err, failed)

	err = WriteFile(filepath.Join(t.TempDir(), "missing", "out.bin"), func(io.Writer) error { return nil })
	assert.Error(t, err)
}

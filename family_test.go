package ikon

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rectKey struct {
	w, h int
}

func (k rectKey) Size() Size { return Size{Width: k.w, Height: k.h} }

func countingFilter(calls *int) Filter {
	return func(src image.Image, size Size) (image.Image, error) {
		*calls++
		return Linear(src, size)
	}
}

func TestFamily_DuplicateRejectedBeforeResampling(t *testing.T) {
	var calls int
	filter := countingFilter(&calls)
	src := NewRaster(image.NewNRGBA(image.Rect(0, 0, 32, 32)))

	f := NewFamily[rectKey](4)
	require.NoError(t, f.AddEntry(filter, src, rectKey{16, 16}))

	err := f.AddEntry(filter, src, rectKey{16, 16})
	assert.ErrorIs(t, err, ErrAlreadyIncluded)

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, rectKey{16, 16}, encErr.Key)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, f.Len())
}

func TestFamily_Limit(t *testing.T) {
	src := NewRaster(image.NewNRGBA(image.Rect(0, 0, 8, 8)))

	f := NewFamily[rectKey](1)
	f.SetLimit(1)
	require.NoError(t, f.AddEntry(Nearest, src, rectKey{4, 4}))

	err := f.AddEntry(Nearest, src, rectKey{2, 2})
	assert.ErrorIs(t, err, ErrFull)
	assert.False(t, f.ContainsKey(rectKey{2, 2}))

	// Duplicates are still reported as such.
	err = f.AddEntry(Nearest, src, rectKey{4, 4})
	assert.ErrorIs(t, err, ErrAlreadyIncluded)
}

func TestFamily_FilterErrors(t *testing.T) {
	src := NewRaster(image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	f := NewFamily[rectKey](0)

	shrink := func(src image.Image, size Size) (image.Image, error) {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
	}
	err := f.AddEntry(shrink, src, rectKey{4, 4})
	assert.ErrorIs(t, err, ErrMismatchedDimensions)

	broken := errors.New("broken")
	err = f.AddEntry(func(image.Image, Size) (image.Image, error) { return nil, broken }, src, rectKey{4, 4})
	assert.ErrorIs(t, err, broken)

	assert.Equal(t, 0, f.Len())
}

func TestFamily_Insert(t *testing.T) {
	f := NewFamily[rectKey](2)

	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	require.NoError(t, f.Insert(rectKey{4, 2}, img))

	got, ok := f.Get(rectKey{4, 2})
	assert.True(t, ok)
	assert.Same(t, img, got)

	err := f.Insert(rectKey{2, 2}, img)
	assert.ErrorIs(t, err, ErrMismatchedDimensions)

	_, ok = f.Get(rectKey{2, 2})
	assert.False(t, ok)
}

func TestFamily_Ordering(t *testing.T) {
	src := NewRaster(image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	f := NewFamily[rectKey](4)

	for _, k := range []rectKey{{32, 32}, {16, 16}, {32, 16}, {16, 32}} {
		require.NoError(t, f.AddEntry(Nearest, src, k))
	}

	want := []rectKey{{16, 16}, {16, 32}, {32, 16}, {32, 32}}
	if diff := cmp.Diff(want, f.Keys(), cmp.AllowUnexported(rectKey{})); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	entries := f.Entries()
	require.Len(t, entries, 4)
	for i, e := range entries {
		assert.Equal(t, want[i], e.Key)
		assert.Equal(t, want[i].Size(), SizeOf(e.Image))
	}
}

package favicon

import (
	"archive/tar"
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/esimov/ikon"
	"github.com/esimov/ikon/pngseq"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(t *testing.T) *ikon.Image {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+2] = 0xff
		img.Pix[i+3] = 0xff
	}
	return ikon.NewRaster(img)
}

func mustKey(t *testing.T, kind Kind, size int) Key {
	t.Helper()

	k, err := NewKey(kind, size)
	require.NoError(t, err)
	return k
}

func newFavicon(t *testing.T) *Favicon {
	t.Helper()

	fav := New()
	keys := []Key{
		mustKey(t, AppleTouchIcon, 32),
		mustKey(t, Icon, 64),
		mustKey(t, Icon, 32),
		mustKey(t, Icon, 16),
	}
	require.NoError(t, ikon.AddEntries(fav, ikon.Nearest, source(t), keys))
	return fav
}

func TestFavicon_Key(t *testing.T) {
	assert := assert.New(t)

	k := mustKey(t, Icon, 32)
	assert.Equal("icon", k.Rel())
	assert.Equal("icons/favicon-32.png", k.Path())

	k = mustKey(t, AppleTouchIcon, 180)
	assert.Equal("apple-touch-icon-precomposed", k.Rel())
	assert.Equal("icons/apple-touch-180.png", k.Path())
	assert.Equal(ikon.Square(180), k.Size())

	parsed, err := ParseKey("icons/apple-touch-180.png")
	assert.NoError(err)
	assert.Equal(k, parsed)

	for _, p := range []string{"icons/favicon-0.png", "icons/favicon-032.png", "favicon-32.png", "icons/favicon-x.png"} {
		_, err := ParseKey(p)
		assert.ErrorIs(err, ikon.ErrInvalidKey, p)
	}

	_, err = NewKey(Kind(7), 16)
	assert.ErrorIs(err, ikon.ErrInvalidKey)
}

func TestFavicon_Ordering(t *testing.T) {
	fav := newFavicon(t)

	want := []string{
		"icons/favicon-16.png",
		"icons/favicon-32.png",
		"icons/apple-touch-32.png",
		"icons/favicon-64.png",
	}
	var got []string
	for _, e := range fav.Entries() {
		got = append(got, e.Key.Path())
		assert.Equal(t, e.Key.Size(), ikon.SizeOf(e.Image))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFavicon_AddEntry(t *testing.T) {
	fav := newFavicon(t)

	key := mustKey(t, Icon, 32)
	err := fav.AddEntry(ikon.Linear, source(t), key)
	assert.ErrorIs(t, err, ikon.ErrAlreadyIncluded)

	var encErr *ikon.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, key, encErr.Key)

	err = fav.AddEntry(ikon.Linear, source(t), Key{})
	assert.ErrorIs(t, err, ikon.ErrInvalidKey)

	assert.Equal(t, 4, fav.Len())
	assert.True(t, fav.ContainsKey(mustKey(t, AppleTouchIcon, 32)))
	assert.False(t, fav.ContainsKey(mustKey(t, AppleTouchIcon, 64)))
}

func TestFavicon_HTML(t *testing.T) {
	fav := New()
	require.NoError(t, fav.AddEntry(ikon.Linear, source(t), mustKey(t, AppleTouchIcon, 16)))
	require.NoError(t, fav.AddEntry(ikon.Linear, source(t), mustKey(t, Icon, 16)))

	want := `<link rel="icon" type="image/png" sizes="16x16" href="icons/favicon-16.png">
<link rel="apple-touch-icon-precomposed" type="image/png" sizes="16x16" href="icons/apple-touch-16.png">
`
	assert.Equal(t, want, string(fav.HTML()))
}

func TestFavicon_EncodeDecode(t *testing.T) {
	fav := newFavicon(t)

	var buf bytes.Buffer
	require.NoError(t, fav.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, fav.Keys(), decoded.Keys())

	img, ok := decoded.Get(mustKey(t, Icon, 64))
	require.True(t, ok)
	assert.Equal(t, color.NRGBAModel.Convert(color.NRGBA{B: 0xff, A: 0xff}), color.NRGBAModel.Convert(img.At(32, 32)))
}

func TestFavicon_DecodeIgnoresForeignFiles(t *testing.T) {
	fav := newFavicon(t)

	var banner bytes.Buffer
	require.NoError(t, ikon.EncodePNG(&banner, image.NewNRGBA(image.Rect(0, 0, 40, 20))))

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, fav.seq.WriteTar(tw))
	require.NoError(t, pngseq.WriteTarFile(tw, "screenshots/banner.png", banner.Bytes()))
	require.NoError(t, pngseq.WriteTarFile(tw, "icons/favicon-big.png", []byte("not a png")))
	require.NoError(t, pngseq.WriteTarFile(tw, HelperFile, fav.HTML()))
	require.NoError(t, tw.Close())

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, fav.Keys(), decoded.Keys())
}

func TestFavicon_Save(t *testing.T) {
	fav := newFavicon(t)
	dir := filepath.Join(t.TempDir(), "site")

	require.NoError(t, ikon.Save(fav, dir))
	for _, k := range fav.Keys() {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(k.Path())))
		assert.NoError(t, err, k.Path())
	}
	html, err := os.ReadFile(filepath.Join(dir, HelperFile))
	require.NoError(t, err)
	assert.Equal(t, fav.HTML(), html)

	archive := filepath.Join(t.TempDir(), "favicon.tar")
	require.NoError(t, ikon.Save(fav, archive))

	f, err := os.Open(archive)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Len())
}

func TestFavicon_TouchBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
		img.Pix[i+3] = 0xff
	}
	src := ikon.NewRaster(img)

	fav := New()
	fav.TouchBackground = color.White

	touch := mustKey(t, AppleTouchIcon, 32)
	require.NoError(t, fav.AddEntry(ikon.Nearest, src, touch))
	require.NoError(t, fav.AddEntry(ikon.Nearest, src, mustKey(t, Icon, 32)))

	err := fav.AddEntry(ikon.Nearest, src, touch)
	assert.ErrorIs(t, err, ikon.ErrAlreadyIncluded)

	// The padding of the touch icon is filled, the one of the regular icon is not.
	out, ok := fav.Get(touch)
	require.True(t, ok)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, color.NRGBAModel.Convert(out.At(16, 0)))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, color.NRGBAModel.Convert(out.At(16, 16)))

	out, ok = fav.Get(mustKey(t, Icon, 32))
	require.True(t, ok)
	_, _, _, a := out.At(16, 0).RGBA()
	assert.Equal(t, uint32(0), a)
}

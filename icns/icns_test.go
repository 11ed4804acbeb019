package icns

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/esimov/ikon"
	"github.com/google/go-cmp/cmp"
	jicns "github.com/jackmordaunt/icns/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blue = color.NRGBA{B: 0xff, A: 0xff}

func newImage(n int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func pngElement(t *testing.T, osType string, n int) element {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, ikon.EncodePNG(&buf, newImage(n, blue)))
	return newElement(osType, buf.Bytes())
}

func TestIcns_Keys(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(ikon.Square(16), RGBA16.Size())
	assert.Equal(ikon.Square(1024), RGBA1024.Size())
	assert.Equal("ic07", RGBA128.OSType())
	assert.Equal("RGBA512", RGBA512.String())

	k, ok := KeyFromSize(256)
	assert.True(ok)
	assert.Equal(RGBA256, k)

	_, ok = KeyFromSize(48)
	assert.False(ok)
}

func TestIcns_AddEntries(t *testing.T) {
	icon := New()
	src := ikon.NewRaster(newImage(24, blue))

	require.NoError(t, ikon.AddEntries(icon, ikon.Nearest, src, []Key{RGBA32, RGBA64}))
	require.NoError(t, icon.AddEntry(ikon.Nearest, src, RGBA128))

	assert.ErrorIs(t, icon.AddEntry(ikon.Nearest, src, RGBA32), ikon.ErrAlreadyIncluded)
	assert.ErrorIs(t, icon.AddEntry(ikon.Nearest, src, Key(42)), ikon.ErrInvalidKey)
	assert.Equal(t, 3, icon.Len())
}

func TestIcns_EncodeDecode(t *testing.T) {
	icon := New()
	src := ikon.NewRaster(newImage(40, blue))
	require.NoError(t, ikon.AddEntries(icon, ikon.Linear, src, []Key{RGBA128, RGBA16, RGBA32}))

	var buf bytes.Buffer
	require.NoError(t, icon.Encode(&buf))

	data := buf.Bytes()
	assert.Equal(t, "icns", string(data[:4]))
	assert.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[4:8]))

	elems, err := readFamily(data)
	require.NoError(t, err)

	types := make([]string, 0, len(elems))
	for _, e := range elems {
		types = append(types, e.typ())
	}
	if diff := cmp.Diff([]string{"TOC ", "icp4", "icp5", "ic07"}, types); diff != "" {
		t.Errorf("element types mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, elems[0].data, 3*headerSize)

	decoded, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	if diff := cmp.Diff([]Key{RGBA16, RGBA32, RGBA128}, decoded.Keys()); diff != "" {
		t.Errorf("decoded keys mismatch (-want +got):\n%s", diff)
	}

	for _, k := range decoded.Keys() {
		want, _ := icon.Get(k)
		got, _ := decoded.Get(k)
		assert.Equal(t, imaging.Clone(want).Pix, imaging.Clone(got).Pix, "entry %v", k)
	}
}

func TestIcns_DecodeRetina(t *testing.T) {
	var buf bytes.Buffer
	err := writeFamily(&buf, []element{
		newElement("info", []byte("<plist/>")),
		pngElement(t, "ic12", 64),
		pngElement(t, "icp5", 32),
		pngElement(t, "ic11", 32),
		newElement("s8mk", make([]byte, 256)),
	})
	require.NoError(t, err)

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff([]Key{RGBA32, RGBA64}, decoded.Keys()); diff != "" {
		t.Errorf("decoded keys mismatch (-want +got):\n%s", diff)
	}
}

func TestIcns_DecodeInvalid(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("icon\x00\x00\x00\x08")))
	assert.Error(t, err)

	_, err = Decode(bytes.NewReader([]byte("icns\x00\x00\x01\x00")))
	assert.Error(t, err)

	// An element whose length exceeds the family.
	_, err = Decode(bytes.NewReader([]byte("icns\x00\x00\x00\x10ic07\x00\x00\x10\x00")))
	assert.Error(t, err)

	// The size of the payload must match a supported key.
	var buf bytes.Buffer
	require.NoError(t, writeFamily(&buf, []element{pngElement(t, "ic07", 100)}))
	_, err = Decode(&buf)
	assert.ErrorIs(t, err, ikon.ErrUnsupported)
}

// runs encodes a plane of n identical bytes as repeat runs.
func runs(v byte, n int) []byte {
	var out []byte
	for n > 0 {
		k := min(n, 130)
		if k < 3 {
			out = append(out, byte(k-1))
			for range k {
				out = append(out, v)
			}
		} else {
			out = append(out, byte(0x80+k-3), v)
		}
		n -= k
	}
	return out
}

// literals encodes a plane as literal runs only.
func literals(plane []byte) []byte {
	var out []byte
	for len(plane) > 0 {
		k := min(len(plane), 128)
		out = append(out, byte(k-1))
		out = append(out, plane[:k]...)
		plane = plane[k:]
	}
	return out
}

func argbElement(osType string, n int, c color.NRGBA) element {
	pixels := n * n
	data := []byte("ARGB")
	data = append(data, runs(c.A, pixels)...)
	data = append(data, runs(c.R, pixels)...)
	data = append(data, runs(c.G, pixels)...)
	data = append(data, literals(bytes.Repeat([]byte{c.B}, pixels))...)
	return newElement(osType, data)
}

func TestIcns_DecodeARGB(t *testing.T) {
	orange := color.NRGBA{R: 0xff, G: 0x80, B: 0x10, A: 0xc0}

	var buf bytes.Buffer
	require.NoError(t, writeFamily(&buf, []element{
		argbElement("ic04", 16, orange),
		argbElement("ic05", 32, blue),
	}))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, []Key{RGBA16, RGBA32}, decoded.Keys())

	img, _ := decoded.Get(RGBA16)
	assert.Equal(t, orange, img.(*image.NRGBA).NRGBAAt(3, 11))
	img, _ = decoded.Get(RGBA32)
	assert.Equal(t, blue, img.(*image.NRGBA).NRGBAAt(31, 31))
}

func TestIcns_UnpackBits(t *testing.T) {
	out, err := unpackBits([]byte{0x02, 1, 2, 3, 0x81, 9}, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 9, 9, 9, 9}, out)

	_, err = unpackBits([]byte{0x02, 1, 2}, 3)
	assert.Error(t, err)
	_, err = unpackBits([]byte{0x85, 1}, 4)
	assert.Error(t, err)
	_, err = unpackBits(nil, 1)
	assert.Error(t, err)
}

var jpeg2000Header = []byte{0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a}

func TestIcns_DecodeSkipsJPEG2000(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFamily(&buf, []element{newElement("ic07", jpeg2000Header)}))

	_, err := Decode(&buf)
	assert.ErrorIs(t, err, ikon.ErrUnsupported)
	assert.ErrorContains(t, err, "JPEG 2000")
}

func TestIcns_DecodeMixedFamily(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFamily(&buf, []element{
		newElement("TOC ", nil),
		pngElement(t, "icp5", 32),
		argbElement("ic04", 16, blue),
		newElement("ic07", jpeg2000Header),
		newElement("ic08", []byte("garbage payload")),
		newElement("ic05", []byte("ARGB\x80")),
		pngElement(t, "ic09", 512),
	}))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff([]Key{RGBA16, RGBA32, RGBA512}, decoded.Keys()); diff != "" {
		t.Errorf("decoded keys mismatch (-want +got):\n%s", diff)
	}
}

func TestIcns_DecodeForeignEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jicns.Encode(&buf, newImage(64, blue)))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, []Key{RGBA32, RGBA64}, decoded.Keys())

	img, ok := decoded.Get(RGBA64)
	require.True(t, ok)
	assert.Equal(t, ikon.Square(64), ikon.SizeOf(img))
}

func TestIcns_EncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Encode(&buf))
	assert.Equal(t, []byte("icns\x00\x00\x00\x08"), buf.Bytes())

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, decoded.Len())
}

package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
)

const bitmapHeaderSize = 40

// bitmapInfoHeader is the BITMAPINFOHEADER structure heading the bitmap entries.
// The height covers both the color bitmap and the transparency mask,
// so it is always twice the height of the icon.
type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// errNotNative marks bitmaps which are not 32-bit uncompressed ones.
var errNotNative = errors.New("bitmap is not 32-bit uncompressed")

// maskStride returns the row length of the 1-bit transparency mask, padded to 32 bits.
func maskStride(width int) int {
	return (width + 31) / 32 * 4
}

// encodeDIB stores img as a 32-bit bitmap followed by its transparency mask.
// The rows are stored bottom-up.
func encodeDIB(img *image.NRGBA) ([]byte, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	stride := maskStride(w)

	hdr := bitmapInfoHeader{
		Size:      bitmapHeaderSize,
		Width:     int32(w),
		Height:    int32(h * 2),
		Planes:    1,
		BitCount:  32,
		SizeImage: uint32(w*h*4 + stride*h),
	}

	var buf bytes.Buffer
	buf.Grow(bitmapHeaderSize + int(hdr.SizeImage))
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}

	row := make([]byte, w*4)
	for y := h - 1; y >= 0; y-- {
		px := img.Pix[img.PixOffset(0, y):]
		for x := 0; x < w; x++ {
			i := x * 4
			row[i+0] = px[i+2]
			row[i+1] = px[i+1]
			row[i+2] = px[i+0]
			row[i+3] = px[i+3]
		}
		buf.Write(row)
	}

	mask := make([]byte, stride)
	for y := h - 1; y >= 0; y-- {
		clear(mask)
		px := img.Pix[img.PixOffset(0, y):]
		for x := 0; x < w; x++ {
			if px[x*4+3] == 0 {
				mask[x/8] |= 0x80 >> (x % 8)
			}
		}
		buf.Write(mask)
	}
	return buf.Bytes(), nil
}

// decodeDIB decodes a 32-bit uncompressed bitmap entry. Every other kind of
// bitmap is reported with errNotNative.
func decodeDIB(data []byte) (*image.NRGBA, error) {
	if len(data) < bitmapHeaderSize {
		return nil, errors.New("the bitmap header is truncated")
	}
	var hdr bitmapInfoHeader
	if err := binary.Read(bytes.NewReader(data[:bitmapHeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Size != bitmapHeaderSize || hdr.BitCount != 32 || hdr.Compression != 0 || hdr.Height < 0 {
		return nil, errNotNative
	}

	w, h := int(hdr.Width), int(hdr.Height)/2
	if w <= 0 || h <= 0 {
		return nil, errors.New("invalid bitmap dimensions")
	}
	pixels := data[bitmapHeaderSize:]
	if len(pixels) < w*h*4 {
		return nil, errors.New("the bitmap data is truncated")
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	hasAlpha := false
	for y := 0; y < h; y++ {
		src := pixels[(h-1-y)*w*4:]
		dst := img.Pix[img.PixOffset(0, y):]
		for x := 0; x < w; x++ {
			i := x * 4
			dst[i+0] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+0]
			dst[i+3] = src[i+3]
			if src[i+3] != 0 {
				hasAlpha = true
			}
		}
	}
	if hasAlpha {
		return img, nil
	}

	// Older encoders leave the alpha channel empty and rely on the mask only.
	mask := pixels[w*h*4:]
	stride := maskStride(w)
	for y := 0; y < h; y++ {
		dst := img.Pix[img.PixOffset(0, y):]
		for x := 0; x < w; x++ {
			transparent := false
			if i := (h-1-y)*stride + x/8; i < len(mask) {
				transparent = mask[i]&(0x80>>(x%8)) != 0
			}
			if !transparent {
				dst[x*4+3] = 0xff
			}
		}
	}
	return img, nil
}

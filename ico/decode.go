package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/esimov/ikon"
	goico "github.com/sergeymakinen/go-ico"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// Decode parses an .ico file. When the file holds several images of the same
// size, only the first one is kept.
func Decode(r io.Reader) (*Icon, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ikon.DecodingError{Format: "ico", Err: err}
	}
	entries, err := readDir(data)
	if err != nil {
		return nil, &ikon.DecodingError{Format: "ico", Err: err}
	}

	icon := WithCapacity(len(entries))
	for _, e := range entries {
		img, err := decodeEntry(e, data[e.Offset:e.Offset+e.Size])
		if err != nil {
			return nil, &ikon.DecodingError{
				Format: "ico",
				Err:    fmt.Errorf("the %dx%d entry: %w", e.width(), e.height(), err),
			}
		}
		size := ikon.SizeOf(img)
		if size.Width != size.Height || size.Width < 1 || size.Width > MaxSize {
			return nil, &ikon.DecodingError{
				Format: "ico",
				Err:    fmt.Errorf("%w: %v entries", ikon.ErrUnsupported, size),
			}
		}
		key := Key(size.Width)
		if icon.ContainsKey(key) {
			continue
		}
		if err := icon.family.Insert(key, img); err != nil {
			return nil, &ikon.DecodingError{Format: "ico", Err: err}
		}
	}
	return icon, nil
}

// decodeEntry decodes the payload of a single directory entry.
func decodeEntry(e dirEntry, data []byte) (image.Image, error) {
	if bytes.HasPrefix(data, pngSignature) {
		return ikon.DecodePNG(bytes.NewReader(data))
	}
	img, err := decodeDIB(data)
	if errors.Is(err, errNotNative) {
		return decodeForeign(e, data)
	}
	return img, err
}

// decodeForeign decodes paletted, 24-bit and compressed bitmaps by handing
// the entry over to go-ico, wrapped in an icon file of its own.
func decodeForeign(e dirEntry, data []byte) (image.Image, error) {
	var buf bytes.Buffer
	buf.Grow(dirSize + entrySize + len(data))

	e.Offset = dirSize + entrySize
	e.Size = uint32(len(data))
	if err := binary.Write(&buf, binary.LittleEndian, iconDir{Type: resourceIcon, Count: 1}); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, e); err != nil {
		return nil, err
	}
	buf.Write(data)

	img, err := goico.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ikon.ErrUnsupported, err)
	}
	return img, nil
}

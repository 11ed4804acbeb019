package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/esimov/ikon"
)

const (
	dirSize   = 6
	entrySize = 16

	resourceIcon   = 1
	resourceCursor = 2
)

// iconDir is the header of an .ico file.
type iconDir struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

// dirEntry describes a single image of an .ico file.
type dirEntry struct {
	Width    uint8 // 0 means 256
	Height   uint8 // 0 means 256
	Colors   uint8
	Reserved uint8
	Planes   uint16
	BitCount uint16
	Size     uint32
	Offset   uint32
}

func (e dirEntry) width() int {
	if e.Width == 0 {
		return 256
	}
	return int(e.Width)
}

func (e dirEntry) height() int {
	if e.Height == 0 {
		return 256
	}
	return int(e.Height)
}

// writeDir writes the icon directory followed by the image payloads.
func writeDir(w io.Writer, entries []ikon.Entry[Key], payloads [][]byte) error {
	var buf bytes.Buffer

	hdr := iconDir{Type: resourceIcon, Count: uint16(len(entries))}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return err
	}

	offset := dirSize + entrySize*len(entries)
	for i, e := range entries {
		de := dirEntry{
			Width:    uint8(e.Key % 256),
			Height:   uint8(e.Key % 256),
			Planes:   1,
			BitCount: 32,
			Size:     uint32(len(payloads[i])),
			Offset:   uint32(offset),
		}
		if err := binary.Write(&buf, binary.LittleEndian, de); err != nil {
			return err
		}
		offset += len(payloads[i])
	}
	for _, p := range payloads {
		buf.Write(p)
	}

	_, err := buf.WriteTo(w)
	return err
}

// readDir parses the icon directory of data.
func readDir(data []byte) ([]dirEntry, error) {
	if len(data) < dirSize {
		return nil, errors.New("the icon directory is truncated")
	}
	var hdr iconDir
	if err := binary.Read(bytes.NewReader(data[:dirSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Reserved != 0 {
		return nil, errors.New("invalid icon directory header")
	}
	switch hdr.Type {
	case resourceIcon:
	case resourceCursor:
		return nil, fmt.Errorf("%w: cursor resources", ikon.ErrUnsupported)
	default:
		return nil, fmt.Errorf("invalid resource type %d", hdr.Type)
	}

	end := dirSize + entrySize*int(hdr.Count)
	if len(data) < end {
		return nil, errors.New("the icon directory is truncated")
	}
	entries := make([]dirEntry, hdr.Count)
	if err := binary.Read(bytes.NewReader(data[dirSize:end]), binary.LittleEndian, entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if uint64(e.Offset)+uint64(e.Size) > uint64(len(data)) {
			return nil, fmt.Errorf("the %dx%d entry points outside of the file", e.width(), e.height())
		}
	}
	return entries, nil
}

// encodePNG compresses an entry as PNG.
func encodePNG(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := ikon.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package icns

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerSize = 8
	magic      = "icns"
	typeTOC    = "TOC "
)

// element is a single chunk of an icon family: a four character type
// followed by the big-endian length of the whole chunk and the payload.
type element struct {
	osType [4]byte
	data   []byte
}

func newElement(osType string, data []byte) element {
	var e element
	copy(e.osType[:], osType)
	e.data = data

	return e
}

func (e element) length() uint32 {
	return uint32(headerSize + len(e.data))
}

func (e element) typ() string {
	return string(e.osType[:])
}

// writeFamily writes the icon family header followed by the elements.
func writeFamily(w io.Writer, elems []element) error {
	total := uint32(headerSize)
	for _, e := range elems {
		total += e.length()
	}

	buf := make([]byte, 0, total)
	buf = append(buf, magic...)
	buf = binary.BigEndian.AppendUint32(buf, total)

	for _, e := range elems {
		buf = append(buf, e.osType[:]...)
		buf = binary.BigEndian.AppendUint32(buf, e.length())
		buf = append(buf, e.data...)
	}

	_, err := w.Write(buf)
	return err
}

// readFamily splits an icon family into its elements.
func readFamily(data []byte) ([]element, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return nil, errors.New("missing icns signature")
	}
	total := binary.BigEndian.Uint32(data[4:8])
	if int64(total) > int64(len(data)) || total < headerSize {
		return nil, fmt.Errorf("invalid icon family length %d", total)
	}

	var elems []element
	for off := uint32(headerSize); off < total; {
		if total-off < headerSize {
			return nil, errors.New("truncated element header")
		}
		var e element
		copy(e.osType[:], data[off:off+4])
		n := binary.BigEndian.Uint32(data[off+4 : off+8])
		if n < headerSize || n > total-off {
			return nil, fmt.Errorf("invalid length %d of the %q element", n, e.typ())
		}
		e.data = data[off+headerSize : off+n]
		elems = append(elems, e)
		off += n
	}
	return elems, nil
}

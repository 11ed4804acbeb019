package favicon

import (
	"fmt"
	"io"

	"github.com/esimov/ikon"
	"github.com/esimov/ikon/pngseq"
)

// Decode reads a favicon set from a tar archive written by Encode.
// Files which do not follow the naming of the set are ignored.
func Decode(r io.Reader) (*Favicon, error) {
	seq, err := pngseq.DecodeMatching(r, isEntry)
	if err != nil {
		return nil, err
	}
	return fromSequence(seq)
}

func isEntry(name string) bool {
	_, err := ParseKey(name)
	return err == nil
}

func fromSequence(seq *pngseq.Sequence) (*Favicon, error) {
	f := WithCapacity(seq.Len())
	for _, e := range seq.Entries() {
		key, err := ParseKey(e.Key.Path())
		if err != nil {
			continue
		}
		if key.Size() != e.Key.Size() {
			return nil, &ikon.DecodingError{
				Format: "favicon",
				Err:    fmt.Errorf("%w: %s holds a %v image", ikon.ErrUnsupported, e.Key.Path(), e.Key.Size()),
			}
		}
		if err := f.Insert(key, e.Image); err != nil {
			return nil, &ikon.DecodingError{Format: "favicon", Err: err}
		}
	}
	return f, nil
}

// Package bake turns source images into icon files of a chosen format.
package bake

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/esimov/ikon"
	"github.com/esimov/ikon/favicon"
	"github.com/esimov/ikon/icns"
	"github.com/esimov/ikon/ico"
	"github.com/esimov/ikon/pngseq"
	"github.com/esimov/ikon/utils"
)

// Format names an icon format the processor can produce.
type Format string

// The supported output formats.
const (
	ICO         Format = "ico"
	ICNS        Format = "icns"
	Favicon     Format = "favicon"
	PNGSequence Format = "png"
)

// Formats lists the supported output formats.
var Formats = []Format{ICO, ICNS, Favicon, PNGSequence}

// DefaultSizes holds the entry sizes baked when the processor doesn't specify any.
var DefaultSizes = map[Format][]int{
	ICO:         {16, 24, 32, 48, 64, 128, 256},
	ICNS:        {16, 32, 64, 128, 256, 512, 1024},
	Favicon:     {16, 32, 48, 96, 192},
	PNGSequence: {16, 32, 64, 128, 256},
}

// ParseFormat returns the format registered under name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(name))
	if !utils.Contains(Formats, f) {
		return "", fmt.Errorf("unknown icon format %q", name)
	}
	return f, nil
}

// FormatFromExt guesses the output format from the destination path.
// Paths without an extension are expected to be directories and receive a favicon set.
func FormatFromExt(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ico":
		return ICO, nil
	case ".icns":
		return ICNS, nil
	case ".tar":
		return Favicon, nil
	case ".zip":
		return PNGSequence, nil
	case "":
		return Favicon, nil
	default:
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			return Favicon, nil
		}
		return "", fmt.Errorf("%v file type not supported", ext)
	}
}

// Ext returns the extension of the files holding icons of format f.
// Formats stored as directory trees return an empty string.
func (f Format) Ext() string {
	switch f {
	case ICO:
		return ".ico"
	case ICNS:
		return ".icns"
	}
	return ""
}

// ParseSizes parses a comma separated list of entry sizes.
func ParseSizes(s string) ([]int, error) {
	var sizes []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid icon size %q", field)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

// Icon is an icon built by the processor.
type Icon interface {
	Len() int
	Encode(w io.Writer) error
}

// Processor options
type Processor struct {
	// Format is the output format. When empty, it's guessed from the destination path.
	Format Format
	// Sizes lists the entry sizes to bake. DefaultSizes are used when empty.
	Sizes []int
	// TouchSizes lists the sizes of the Apple touch icons added to favicon sets.
	TouchSizes []int
	// TouchBackground fills the transparent areas of the Apple touch icons when set.
	TouchBackground color.Color
	// Filter rescales raster sources. Linear is used when nil.
	Filter  ikon.Filter
	Spinner *utils.Spinner
}

func (p *Processor) sizes(format Format) []int {
	sizes := p.Sizes
	if len(sizes) == 0 {
		sizes = DefaultSizes[format]
	}
	out := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if !utils.Contains(out, s) {
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}

// Bake builds an icon of the given format out of src.
func (p *Processor) Bake(format Format, src *ikon.Image) (Icon, error) {
	sizes := p.sizes(format)

	switch format {
	case ICO:
		keys := make([]ico.Key, 0, len(sizes))
		for _, s := range sizes {
			k, err := ico.NewKey(s)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		icon := ico.WithCapacity(len(keys))
		return icon, ikon.AddEntries(icon, p.Filter, src, keys)

	case ICNS:
		keys := make([]icns.Key, 0, len(sizes))
		for _, s := range sizes {
			k, ok := icns.KeyFromSize(s)
			if !ok {
				return nil, fmt.Errorf("%w: icns has no %dx%d entry", ikon.ErrInvalidKey, s, s)
			}
			keys = append(keys, k)
		}
		icon := icns.WithCapacity(len(keys))
		return icon, ikon.AddEntries(icon, p.Filter, src, keys)

	case Favicon:
		var keys []favicon.Key
		for kind, list := range map[favicon.Kind][]int{favicon.Icon: sizes, favicon.AppleTouchIcon: p.TouchSizes} {
			for _, s := range list {
				k, err := favicon.NewKey(kind, s)
				if err != nil {
					return nil, err
				}
				keys = append(keys, k)
			}
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

		icon := favicon.WithCapacity(len(keys))
		icon.TouchBackground = p.TouchBackground
		return icon, ikon.AddEntries(icon, p.Filter, src, keys)

	case PNGSequence:
		keys := make([]pngseq.Key, 0, len(sizes))
		for _, s := range sizes {
			k, err := pngseq.NewKey(s, fmt.Sprintf("icon-%d.png", s))
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		icon := pngseq.WithCapacity(len(keys))
		return icon, ikon.AddEntries(icon, p.Filter, src, keys)
	}
	return nil, fmt.Errorf("unknown icon format %q", format)
}

// Process reads the source image from r and writes the icon to w.
// The output format has to be set, since it cannot be guessed from a stream.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	if p.Format == "" {
		return errors.New("the output format must be specified when writing to a stream")
	}
	src, err := ikon.Load(r)
	if err != nil {
		return err
	}
	icon, err := p.Bake(p.Format, src)
	if err != nil {
		return err
	}
	return icon.Encode(w)
}

// Save bakes src and stores the icon at path.
func (p *Processor) Save(src *ikon.Image, path string) error {
	format := p.Format
	if format == "" {
		var err error
		if format, err = FormatFromExt(path); err != nil {
			return err
		}
	}
	icon, err := p.Bake(format, src)
	if err != nil {
		return err
	}
	return ikon.Save(icon, path)
}

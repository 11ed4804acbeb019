package bake

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/esimov/ikon"
	"github.com/esimov/ikon/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// SourceExtensions lists the extensions of the source images picked up from directories.
var SourceExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".svg"}

// Ops describes a baking operation.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
	// Log receives the status lines. It defaults to the standard error.
	Log io.Writer
}

// result holds the relevant information about the baking process of a single source.
type result struct {
	path string
	err  error
}

func (op *Ops) logger() io.Writer {
	if op.Log == nil {
		return os.Stderr
	}
	return op.Log
}

// Execute bakes the icons described by op. The source can be a local image,
// an URL, a pipe or a directory. Directories are walked recursively and each
// image found is baked concurrently into the destination directory.
func (p *Processor) Execute(op *Ops) error {
	var (
		fs  os.FileInfo
		err error
	)

	src := op.Src
	// Check if source path is a local image or URL.
	if utils.IsValidUrl(op.Src) {
		f, err := utils.DownloadImage(op.Src)
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		defer os.Remove(f.Name())
		defer f.Close()

		src = f.Name()
		fs, err = f.Stat()
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
	} else {
		// Check if the source is a pipe name or a regular file.
		if op.Src == op.PipeName {
			fs, err = os.Stdin.Stat()
		} else {
			fs, err = os.Stat(op.Src)
		}
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		err = p.executeDir(op)
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0 || op.Src == op.PipeName:
		p.startSpinner()
		err = op.process(p, src, op.Dst)
		p.stopSpinner(err)
		op.printOpStatus(op.Dst, err)
	default:
		err = fmt.Errorf("%s is neither a file nor a directory", op.Src)
	}
	if err == nil {
		fmt.Fprint(op.logger(), utils.Elapsed(time.Since(now)))
	}
	return err
}

// executeDir bakes every source image found under op.Src into op.Dst.
// It returns the last error encountered.
func (p *Processor) executeDir(op *Ops) error {
	if op.Dst == op.PipeName {
		return errors.New("a directory cannot be baked into a pipe")
	}
	if err := os.MkdirAll(op.Dst, 0755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}

	format := p.Format
	if format == "" {
		format = Favicon
	}
	proc := *p
	proc.Format = format

	// Limit the concurrently running workers to maxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > maxWorkers {
		workers = runtime.NumCPU()
	}

	ch := make(chan result)
	done := make(chan any)
	defer close(done)

	paths, errc := walkDir(done, op.Src, SourceExtensions)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			op.consumer(&proc, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	p.startSpinner()

	var (
		err   error
		count int
	)
	for res := range ch {
		count++
		if res.err != nil {
			err = res.err
		}
		if p.Spinner != nil {
			p.Spinner.SetMessage(utils.Headline(fmt.Sprintf("baked %d icons...", count)))
		}
		op.printOpStatus(res.path, res.err)
	}
	p.stopSpinner(err)

	if werr := <-errc; werr != nil {
		return werr
	}
	return err
}

// consumer reads the path names from the paths channel and bakes the icon of each source image.
func (op *Ops) consumer(
	p *Processor,
	res chan<- result,
	done <-chan any,
	paths <-chan string,
) {
	for src := range paths {
		dst := op.destination(src, p.Format)
		err := op.process(p, src, dst)

		select {
		case <-done:
			return
		case res <- result{
			path: dst,
			err:  err,
		}:
		}
	}
}

// destination mirrors the location of src relative to the source directory
// inside the destination directory. Sources sharing their name with another
// source of a different type keep their extension, so logo.png and logo.svg
// are baked into logo.png.ico and logo.svg.ico.
func (op *Ops) destination(src string, format Format) string {
	rel, err := filepath.Rel(op.Src, src)
	if err != nil {
		rel = filepath.Base(src)
	}
	if !sharesStem(src) {
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	}
	return filepath.Join(op.Dst, rel+format.Ext())
}

// sharesStem reports whether another source image sits next to src under the same name.
func sharesStem(src string) bool {
	ext := filepath.Ext(src)
	stem := strings.TrimSuffix(src, ext)
	for _, other := range SourceExtensions {
		if strings.EqualFold(other, ext) {
			continue
		}
		if fi, err := os.Stat(stem + other); err == nil && fi.Mode().IsRegular() {
			return true
		}
	}
	return false
}

// process bakes the icon of a single source image.
func (op *Ops) process(p *Processor, in, out string) error {
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		r, err := op.openSource(in)
		if err != nil {
			return err
		}
		defer r.Close()

		return p.Process(r, os.Stdout)
	}

	r, err := op.openSource(in)
	if err != nil {
		return err
	}
	img, err := ikon.Load(r)
	r.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}
	if err := p.Save(img, out); err != nil {
		// remove the partially written icon file in case of an error
		if fi, serr := os.Stat(out); serr == nil && fi.Mode().IsRegular() {
			os.Remove(out)
		}
		return err
	}
	return nil
}

// openSource opens the source image, be it a regular file or the standard input.
func (op *Ops) openSource(in string) (io.ReadCloser, error) {
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("unable to open the source file: %w", err)
	}
	return f, nil
}

// printOpStatus displays the relevant information about the baking process.
func (op *Ops) printOpStatus(fname string, err error) {
	if err == nil && fname == op.PipeName {
		return
	}
	fmt.Fprint(op.logger(), utils.IconStatus(fname, err))
}

func (p *Processor) startSpinner() {
	if p.Spinner != nil {
		p.Spinner.Start()
	}
}

func (p *Processor) stopSpinner(err error) {
	if p.Spinner == nil {
		return
	}
	if err != nil {
		p.Spinner.StopMsg = utils.Outcome("baking failed...", false)
	} else {
		p.Spinner.StopMsg = utils.Outcome("the icons have been baked successfully", true)
	}
	p.Spinner.Stop()
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each source image to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan any,
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if !utils.Contains(srcExts, strings.ToLower(filepath.Ext(f.Name()))) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

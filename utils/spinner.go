package utils

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var frames = []rune(`⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏`)

// Spinner redraws a progress message followed by an animated frame on a
// single terminal line until it's stopped.
type Spinner struct {
	// StopMsg is printed in place of the progress message once the spinner stops.
	StopMsg string

	mu         sync.Mutex
	w          io.Writer
	message    string
	delay      time.Duration
	hideCursor bool
	lastWidth  int
	running    bool
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewSpinner returns a spinner writing to the standard error.
func NewSpinner(msg string, d time.Duration, hideCursor bool) *Spinner {
	return NewSpinnerTo(os.Stderr, msg, d, hideCursor)
}

// NewSpinnerTo returns a spinner writing to w, redrawn every d.
func NewSpinnerTo(w io.Writer, msg string, d time.Duration, hideCursor bool) *Spinner {
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	return &Spinner{
		w:          w,
		message:    msg,
		delay:      d,
		hideCursor: hideCursor,
	}
}

// Start starts the animation. Starting a running spinner has no effect.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.w, "\033[?25l")
	}
	s.render(frames[0])

	s.wg.Add(1)
	go s.animate(s.done)
}

func (s *Spinner) animate(done <-chan struct{}) {
	defer s.wg.Done()

	t := time.NewTicker(s.delay)
	defer t.Stop()

	for i := 1; ; i++ {
		select {
		case <-done:
			return
		case <-t.C:
			s.mu.Lock()
			s.render(frames[i%len(frames)])
			s.mu.Unlock()
		}
	}
}

// render draws a frame. Caller must hold the lock.
func (s *Spinner) render(frame rune) {
	out := fmt.Sprintf("\r%s%s %c%s", s.message, SuccessColor, frame, DefaultColor)
	fmt.Fprint(s.w, out)
	s.lastWidth = utf8.RuneCountInString(out)
}

// SetMessage replaces the message shown in front of the animation.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = msg
}

// Stop stops the animation, clears the line and prints StopMsg.
// It waits for the last frame to be drawn. Calling it more than once has no effect.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	s.RestoreCursor()
	if s.StopMsg != "" {
		fmt.Fprint(s.w, s.StopMsg)
	}
}

// RestoreCursor makes the cursor visible again.
func (s *Spinner) RestoreCursor() {
	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.w, "\033[?25h")
	}
}

// clear erases the last drawn frame. Caller must hold the lock.
func (s *Spinner) clear() {
	if runtime.GOOS == "windows" {
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.lastWidth)+"\r")
	} else {
		fmt.Fprint(s.w, "\r\033[K")
	}
	s.lastWidth = 0
}

package output

import (
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress on stderr while a long step runs. It only animates
// when stderr is a terminal; the final status line is always written.
type Spinner struct {
	s *spinner.Spinner
	r *Renderer
}

// NewSpinner creates a stopped spinner with msg as its suffix.
func (r *Renderer) NewSpinner(msg string) *Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(r.errOut))
	s.Suffix = " " + msg
	return &Spinner{s: s, r: r}
}

// Start starts the animation.
func (s *Spinner) Start() { s.s.Start() }

// Update replaces the message.
func (s *Spinner) Update(msg string) {
	s.s.Lock()
	s.s.Suffix = " " + msg
	s.s.Unlock()
}

// Stop stops the animation without a status line.
func (s *Spinner) Stop() { s.s.Stop() }

// Success stops the spinner and writes a success line.
func (s *Spinner) Success(msg string) {
	s.s.Stop()
	s.r.Success(msg)
}

// Fail stops the spinner and writes an error line.
func (s *Spinner) Fail(msg string) {
	s.s.Stop()
	s.r.Error(msg)
}

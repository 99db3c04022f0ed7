// Package spinner implements a progress spinner for long-running add-on
// installations.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
)

// New returns a spinner writing to wr with the given suffix. On writers
// that are not terminals (files, pipes) the animation is disabled and the
// suffix is printed once per Restart instead.
func New(wr io.Writer, suffix string) (s Spinner) {
	if wr == nil {
		wr = os.Stderr
	}
	s = Spinner{wr: wr, suffix: strings.TrimSpace(suffix)}
	if isTerminal(wr) {
		s.sp = spinner.New(spinner.CharSets[39], 500*time.Millisecond, spinner.WithWriter(wr))
		s.sp.Suffix = "  " + s.suffix
		s.sp.FinalMSG = "\n"
	}
	return s
}

// Spinner animates while an add-on installation runs.
type Spinner struct {
	wr     io.Writer
	suffix string
	sp     *spinner.Spinner
}

// Restart begins (or resumes) the animation.
func (s Spinner) Restart() {
	if s.sp != nil {
		s.sp.Start()
		return
	}
	fmt.Fprintf(s.wr, "%s\n", s.suffix)
}

// Stop halts the animation.
func (s Spinner) Stop() {
	if s.sp != nil {
		s.sp.Stop()
	}
}

func isTerminal(wr io.Writer) bool {
	f, ok := wr.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return st.Mode()&os.ModeCharDevice != 0
}

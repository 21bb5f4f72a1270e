package mainutil

import (
	"fmt"
	"os"
	"time"

	bar "github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// NewSpinner returns an indefinite spinner for waits of unknown length,
// visible only when stderr is a terminal.
func NewSpinner(description string, options ...bar.Option) *bar.ProgressBar {
	return bar.NewOptions(-1,
		append([]bar.Option{
			bar.OptionSetDescription(description),
			bar.OptionSetWriter(os.Stderr),
			bar.OptionSetVisibility(term.IsTerminal(int(os.Stderr.Fd()))),
			bar.OptionThrottle(99 * time.Millisecond),
			bar.OptionSpinnerType(9),
			bar.OptionOnCompletion(func() { fmt.Fprint(os.Stderr, "\n") }),
		}, options...)...)
}

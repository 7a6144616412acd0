package lib

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// newProgressBar draws on stderr so stdout stays free for command output.
func newProgressBar(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description+":"),
		progressbar.OptionSetWidth(20), // Fit in an 80-column terminal.
		progressbar.OptionShowBytes(true),
		progressbar.OptionUseIECUnits(true),
		progressbar.OptionShowCount(), // Show number of bytes moved.
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowTotalBytes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

// newProgressWriter returns a bar as an io.Writer, or nil when progress is off.
func newProgressWriter(enabled bool, size int64, description string) (io.Writer, func()) {
	if !enabled {
		return nil, func() {}
	}
	bar := newProgressBar(size, description)
	return bar, func() {
		_ = bar.Finish()
	}
}

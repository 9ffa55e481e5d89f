// Package rowbar shows the progress of row generation on the terminal.
package rowbar

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

type Bar struct {
	pb *progressbar.ProgressBar
}

// New returns a bar for maxRows rows that renders to w.
func New(w io.Writer, description string, maxRows int) *Bar {
	pb := progressbar.NewOptions(maxRows,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		progressbar.OptionSetWidth(10),
		progressbar.OptionFullWidth(),
	)
	_ = pb.Set(0)

	return &Bar{pb: pb}
}

// Report matches the progress callback of testdb.WithProgress.
func (b *Bar) Report(done, _ int) {
	_ = b.pb.Set(done)
}

func (b *Bar) Finish() {
	_ = b.pb.Finish()
	_ = b.pb.Close()
}

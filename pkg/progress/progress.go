package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar tracks how many records of a listing have been shown so far.
type Bar struct {
	*progressbar.ProgressBar
	out io.Writer
}

func NewBar(max int64, description string, out io.Writer) *Bar {
	if out == nil {
		out = os.Stderr
	}

	bar := progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)

	return &Bar{ProgressBar: bar, out: out}
}

func (b *Bar) IncrementBy(amount int64) {
	if b.ProgressBar == nil {
		return
	}
	_ = b.Add64(amount)
	// leave the bar line before the next table is printed
	fmt.Fprintln(b.out)
}

func (b *Bar) Finish() {
	if b.ProgressBar == nil {
		return
	}
	_ = b.ProgressBar.Finish()
}

// Tracker shows one bar per listing; a disabled tracker prints nothing.
type Tracker struct {
	out     io.Writer
	enabled bool
	bar     *Bar
}

func NewTracker(out io.Writer, enabled bool) *Tracker {
	return &Tracker{out: out, enabled: enabled}
}

func (t *Tracker) Begin(total int64, description string) {
	if !t.enabled || total <= 0 {
		return
	}
	t.bar = NewBar(total, description, t.out)
}

func (t *Tracker) Advance(n int) {
	if t.bar == nil {
		return
	}
	t.bar.IncrementBy(int64(n))
}

func (t *Tracker) End() {
	if t.bar == nil {
		return
	}
	t.bar.Finish()
	t.bar = nil
}

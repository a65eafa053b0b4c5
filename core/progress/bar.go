package progress

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// Bar is a Sink that draws a single-line progress bar, typically on stderr.
type Bar struct {
	w       io.Writer
	width   int
	total   int
	current int
}

var _ Sink = &Bar{} // Compile-time check

// NewBar creates a bar that fits the terminal behind w, or 80 columns otherwise.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w, width: terminalWidth(w)}
}

// SetTotal implements Sink.
func (b *Bar) SetTotal(total int) {
	b.total = total
	b.render()
}

// Update implements Sink.
func (b *Bar) Update(n int) {
	b.current += n
	b.render()
}

// Close implements Sink.
func (b *Bar) Close() {
	b.render()
	_, _ = fmt.Fprintln(b.w)
}

func (b *Bar) render() {
	cells := min(max(b.width-40, 10), 50)
	filled := 0
	if b.total > 0 {
		filled = min(cells*b.current/b.total, cells)
	}
	_, _ = fmt.Fprintf(b.w, "\r[%s%s] %s/%s days",
		strings.Repeat("#", filled),
		strings.Repeat(".", cells-filled),
		humanize.Comma(int64(b.current)),
		humanize.Comma(int64(b.total)),
	)
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

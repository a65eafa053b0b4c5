// Package progress reports log collection progress in elapsed days.
package progress

import (
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
)

// Sink is anything that can display progress, like a terminal bar.
type Sink interface {
	SetTotal(total int)
	Update(n int)
	Close()
}

type nopSink struct{}

func (nopSink) SetTotal(int) {}
func (nopSink) Update(int)   {}
func (nopSink) Close()       {}

// Nop is the default sink. It discards everything.
var Nop Sink = nopSink{}

// Direction is the chronological order in which entries are reported.
type Direction int

// Supported directions.
const (
	Auto       Direction = iota // detected from the first date
	Ascending                   // oldest first, as svn log -r after:HEAD
	Descending                  // newest first, as git log
)

// Reporter translates entry dates into monotonic day counts for a Sink.
type Reporter struct {
	sink      Sink
	start     time.Time
	now       time.Time
	direction Direction
	total     int
	count     int
	closed    bool
}

// NewReporter creates a reporter for the period from start to now and
// declares the number of days in that period as the sink total.
func NewReporter(sink Sink, start, now time.Time, direction Direction) *Reporter {
	if sink == nil {
		sink = Nop
	}
	total := max(contract.DaysBetween(start, now), 0)
	sink.SetTotal(total)
	return &Reporter{
		sink:      sink,
		start:     start,
		now:       now,
		direction: direction,
		total:     total,
	}
}

// Direction returns the direction in use, which is Auto until the first update.
func (r *Reporter) Direction() Direction {
	return r.direction
}

// Update reports the date of the entry just parsed.
// Only forward progress reaches the sink.
func (r *Reporter) Update(date time.Time) {
	if r.closed {
		return
	}
	if r.direction == Auto {
		r.direction = detect(r.start, r.now, date)
	}

	var count int
	if r.direction == Ascending {
		count = contract.DaysBetween(r.start, date)
	} else {
		count = contract.DaysBetween(date, r.now)
	}
	count = min(count, r.total)

	if diff := count - r.count; diff > 0 {
		r.sink.Update(diff)
		r.count = count
	}
}

// Close drives the sink to its total and closes it. It is safe to call twice.
func (r *Reporter) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if rest := r.total - r.count; rest > 0 {
		r.sink.Update(rest)
		r.count = r.total
	}
	r.sink.Close()
}

// detect picks Ascending when date is closer to start than to now.
func detect(start, now, date time.Time) Direction {
	toStart := abs(contract.DaysBetween(start, date))
	toNow := abs(contract.DaysBetween(date, now))
	if toStart <= toNow {
		return Ascending
	}
	return Descending
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Abort closes the sink where it stands, for runs that failed midway.
func (r *Reporter) Abort() {
	if r.closed {
		return
	}
	r.closed = true
	r.sink.Close()
}

package scm

import (
	"time"

	"github.com/codemetrics/codemetrics/internal/contract"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// recordingSink keeps every progress call for assertions.
type recordingSink struct {
	total   int
	updates []int
	closed  int
}

func (s *recordingSink) SetTotal(total int) { s.total = total }
func (s *recordingSink) Update(n int)       { s.updates = append(s.updates, n) }
func (s *recordingSink) Close()             { s.closed++ }

func (s *recordingSink) sum() int {
	total := 0
	for _, n := range s.updates {
		total += n
	}
	return total
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// testOptions returns options wired to a mock runner and a captured logger.
func testOptions(now time.Time) (Options, *contract.MockRunner, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	runner := new(contract.MockRunner)
	return Options{
		Cwd:    "<root>",
		Runner: runner,
		Logger: logger,
		Now:    fixedNow(now),
	}, runner, hook
}

func strPtr(s string) *string { return &s }

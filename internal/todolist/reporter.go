package todolist

import (
	"log/slog"
)

// Op names a synchronizer action for failure reporting.
type Op string

// Synchronizer actions.
const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpToggle Op = "toggle"
	OpDelete Op = "delete"
)

// Reporter decides how visible a failed request is. The list itself is
// never changed by a failure; the reporter only makes it known.
type Reporter interface {
	Report(op Op, err error)
}

// FuncReporter adapts a function to Reporter.
type FuncReporter func(op Op, err error)

// Report implements Reporter.
func (f FuncReporter) Report(op Op, err error) { f(op, err) }

// Discard drops every failure.
var Discard Reporter = FuncReporter(func(Op, error) {})

// LogReporter logs failures at warn level and nothing else.
type LogReporter struct {
	Logger *slog.Logger // nil means slog.Default()
}

// Report implements Reporter.
func (l LogReporter) Report(op Op, err error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("todo request failed", "op", string(op), "err", err)
}

// Tee fans a failure out to every reporter in order.
func Tee(rs ...Reporter) Reporter {
	return FuncReporter(func(op Op, err error) {
		for _, r := range rs {
			if r != nil {
				r.Report(op, err)
			}
		}
	})
}

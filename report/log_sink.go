package report

import (
	"io"
	"log"
)

// LogSink is the default sink: one line per Report via a *log.Logger,
// matching the teacher's own stdlib log usage (config.go's log.Panicf)
// rather than reaching for a third-party logging library the example
// pack never imports.
type LogSink struct {
	l *log.Logger
}

func NewLogSink(w io.Writer) *LogSink {
	return &LogSink{l: log.New(w, "mcmini: ", log.LstdFlags)}
}

func (s *LogSink) Report(r Report) {
	switch r.Kind {
	case UndefinedBehavior:
		s.l.Printf("%s %s after %d steps: %v", r.Kind, r.ID, len(r.Trace), r.Err)
	default:
		s.l.Printf("%s %s after %d steps", r.Kind, r.ID, len(r.Trace))
	}
}

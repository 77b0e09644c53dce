package report

import (
	"encoding/json"
	"io"
)

// jsonStep is the wire shape of one coordinator.PrefixEntry — Transition
// is flattened to its String() form since model.Transition carries no
// exported fields of its own for json to walk.
type jsonStep struct {
	Runner     int    `json:"runner"`
	Transition string `json:"transition"`
}

type jsonReport struct {
	ID    string     `json:"id"`
	Kind  string     `json:"kind"`
	Err   string     `json:"error,omitempty"`
	Trace []jsonStep `json:"trace"`
}

// JSONSink exports each Report as one JSON object per line, for
// offline tooling per spec §4.L.
type JSONSink struct {
	enc *json.Encoder
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

func (s *JSONSink) Report(r Report) {
	out := jsonReport{
		ID:    r.ID.String(),
		Kind:  r.Kind.String(),
		Trace: make([]jsonStep, len(r.Trace)),
	}
	if r.Err != nil {
		out.Err = r.Err.Error()
	}
	for i, entry := range r.Trace {
		out.Trace[i] = jsonStep{Runner: int(entry.Runner), Transition: entry.Transition.String()}
	}
	// Encoder.Encode never fails on a value that marshals cleanly; the
	// error path here only matters if w itself starts refusing writes,
	// which report sinks are not expected to recover from.
	_ = s.enc.Encode(out)
}

package report

import (
	"fmt"
	"io"

	"mcmini/coordinator"
	"mcmini/tree"
)

// NewickSink exports each Report's trace prefix as a single-branch
// Newick tree, the same shape stateSpace.go's treeStateSpace.Export
// writes for the teacher's multi-run state tree — here degenerate to one
// chain, since a trace prefix has no siblings of its own.
type NewickSink struct {
	w io.Writer
}

func NewNewickSink(w io.Writer) *NewickSink {
	return &NewickSink{w: w}
}

func (s *NewickSink) Report(r Report) {
	fmt.Fprintln(s.w, newick(r))
}

// TraceNewick renders a bare trace prefix as Newick, for callers (like
// --print-at-traceId) that want a tree dump without going through the
// Report/Sink machinery.
func TraceNewick(trace []coordinator.PrefixEntry) string {
	if len(trace) == 0 {
		return "();"
	}
	root := tree.New(label(0, trace[0]), func(a, b string) bool { return a == b })
	node := &root
	for i, entry := range trace[1:] {
		node = node.AddChild(label(i+1, entry))
	}
	return root.Newick()
}

func newick(r Report) string {
	if len(r.Trace) == 0 {
		return fmt.Sprintf("(\"%s: %s\");", r.Kind, r.ID)
	}
	return TraceNewick(r.Trace)
}

func label(step int, entry coordinator.PrefixEntry) string {
	return fmt.Sprintf("%d:r%d:%s", step, entry.Runner, entry.Transition)
}

package realworld

import (
	"errors"
	"os"
	"testing"
)

// TestForkExecSourceSpawnErrorOnMissingBinary exercises the ErrSpawn path
// without needing a real target binary or interception shim.
func TestForkExecSourceSpawnErrorOnMissingBinary(t *testing.T) {
	src := NewForkExecSource("/nonexistent/path/to/mcmini-target", nil)
	_, err := src.ForceNewProcess()
	if err == nil {
		t.Fatal("expected ForceNewProcess to fail for a nonexistent binary")
	}
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
}

// TestForkExecHandleExecuteRunnerRejectsOutOfRangeSlot exercises the
// bounds check on runner slots without spawning a process.
func TestForkExecHandleExecuteRunnerRejectsOutOfRangeSlot(t *testing.T) {
	h := &ForkExecHandle{released: false}
	_, err := h.ExecuteRunner(Addr(maxRunners))
	if err == nil {
		t.Fatal("expected an error for an out-of-range runner slot")
	}
}

// TestForkExecHandleExecuteRunnerAfterReleaseIsDeadProcess exercises the
// "already released" short-circuit.
func TestForkExecHandleExecuteRunnerAfterReleaseIsDeadProcess(t *testing.T) {
	h := &ForkExecHandle{released: true}
	_, err := h.ExecuteRunner(Addr(0))
	if !errors.Is(err, ErrDeadProcess) {
		t.Fatalf("expected ErrDeadProcess, got %v", err)
	}
}

// TestCheckpointSourceInitialObjectsParsesShadowList builds a synthetic
// checkpoint image on disk and checks the shadow-object records round
// trip, mirroring how original_source's hashtable.c-adjacent shadow list
// walk is described in spec §4.B/§9.
func TestCheckpointSourceInitialObjectsParsesShadowList(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "mcmini-checkpoint-image")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records := [][2]uint64{
		{0x1000, 1},
		{0x2000, 2},
		{0, 0}, // terminator
	}
	for _, rec := range records {
		writeLE64(t, f, rec[0])
		writeLE32(t, f, uint32(rec[1]))
	}

	src := &CheckpointSource{ImagePath: f.Name()}
	objs, err := src.InitialObjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 2 {
		t.Fatalf("expected 2 shadow objects, got %d", len(objs))
	}
	if objs[0].Addr != Addr(0x1000) || objs[0].Kind != 1 {
		t.Fatalf("unexpected first object: %+v", objs[0])
	}
	if objs[1].Addr != Addr(0x2000) || objs[1].Kind != 2 {
		t.Fatalf("unexpected second object: %+v", objs[1])
	}
}

// TestCheckpointSourceSpawnErrorOnMissingRestartTool mirrors
// TestForkExecSourceSpawnErrorOnMissingBinary: a checkpoint-restart
// source with a nonexistent restart tool fails the same way a fork/exec
// source fails on a nonexistent target.
func TestCheckpointSourceSpawnErrorOnMissingRestartTool(t *testing.T) {
	src := NewCheckpointSource("/nonexistent/path/to/dmtcp_restart", t.TempDir())
	_, err := src.ForceNewProcess()
	if err == nil {
		t.Fatal("expected ForceNewProcess to fail for a nonexistent restart tool")
	}
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
}

// TestNewRunnerPipesWiresDistinctConnectedPairs exercises the pipe
// plumbing ForkExecSource and CheckpointSource both build their mailbox
// transport on, deterministically — without spawning a real target or
// dmtcp_restart binary, whose process-lifecycle timing a test cannot
// control reliably.
func TestNewRunnerPipesWiresDistinctConnectedPairs(t *testing.T) {
	p, err := newRunnerPipes()
	if err != nil {
		t.Fatalf("newRunnerPipes: %v", err)
	}
	defer p.closeAll()

	if got, want := len(p.extraFiles()), 2*maxRunners; got != want {
		t.Fatalf("expected %d extra files (one go-read, one done-write per slot), got %d", want, got)
	}

	if _, err := p.goWrite[0].Write([]byte("x")); err != nil {
		t.Fatalf("writing to goWrite[0]: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := p.goRead[0].Read(buf); err != nil {
		t.Fatalf("reading from goRead[0]: %v", err)
	}
	if buf[0] != 'x' {
		t.Fatalf("expected slot 0's go-pipe to round trip a byte, got %q", buf)
	}
}

func writeLE64(t *testing.T, f *os.File, v uint64) {
	t.Helper()
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	if _, err := f.Write(b[:]); err != nil {
		t.Fatal(err)
	}
}

func writeLE32(t *testing.T, f *os.File, v uint32) {
	t.Helper()
	var b [4]byte
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
	if _, err := f.Write(b[:]); err != nil {
		t.Fatal(err)
	}
}

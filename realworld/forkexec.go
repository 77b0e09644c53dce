package realworld

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	gopsprocess "github.com/shirou/gopsutil/v3/process"
)

// maxRunners bounds how many runner slots ForkExecSource pre-maps per
// process. A target rarely runs more threads than this; ExecuteRunner
// returns an out-of-range error if a runner id would overflow it.
const maxRunners = 256

// mailboxRegionSize is exactly mailbox.MaxPayload plus the type-id word;
// one region is reserved per runner slot.
const mailboxRegionSize = 4 + 8*8

// ForkExecSource is the concrete process_source of spec §4.J: it execs
// the target binary with the (out-of-scope) interception shim preloaded
// via LD_PRELOAD, and wires one pipe pair per runner slot as the "go"/
// "done" signalling convention the shim and this package agree on —
// standing in for the named POSIX semaphores a real preload shim would
// open, the way launcher.go's agentRead/agentWrite pipe stands in for a
// richer handshake protocol.
type ForkExecSource struct {
	Path    string
	Args    []string
	Env     []string
	Preload string // path to the interception shim, exported as LD_PRELOAD
	Timeout time.Duration
}

func NewForkExecSource(path string, args []string) *ForkExecSource {
	return &ForkExecSource{Path: path, Args: args}
}

func (s *ForkExecSource) ForceNewProcess() (ProcessHandle, error) {
	pipes, err := newRunnerPipes()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(s.Path, append([]string(nil), s.Args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = pipes.extraFiles()
	cmd.Env = append(append([]string(nil), s.Env...), "LD_PRELOAD="+s.Preload)

	if err := cmd.Start(); err != nil {
		pipes.closeAll()
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	pipes.closeChildEnds()

	procInfo, err := gopsprocess.NewProcess(int32(cmd.Process.Pid))
	if err != nil {
		cmd.Process.Kill()
		pipes.closeAll()
		return nil, fmt.Errorf("%w: could not observe spawned pid %d: %v", ErrSpawn, cmd.Process.Pid, err)
	}

	h := &ForkExecHandle{
		cmd:      cmd,
		proc:     procInfo,
		goWrite:  pipes.goWrite,
		doneRead: pipes.doneRead,
		timeout:  s.Timeout,
	}
	return h, nil
}

// runnerPipes is one target process's full set of "go"/"done" mailbox
// pipes, one pair per runner slot — the pipe-per-slot convention both
// ForkExecSource and CheckpointSource wire their process handles
// through, standing in for the named POSIX semaphores a real preload
// shim would open.
type runnerPipes struct {
	goRead, goWrite     []*os.File
	doneRead, doneWrite []*os.File
}

func newRunnerPipes() (*runnerPipes, error) {
	p := &runnerPipes{
		goRead:    make([]*os.File, maxRunners),
		goWrite:   make([]*os.File, maxRunners),
		doneRead:  make([]*os.File, maxRunners),
		doneWrite: make([]*os.File, maxRunners),
	}
	for i := 0; i < maxRunners; i++ {
		gr, gw, err := os.Pipe()
		if err != nil {
			p.closeAll()
			return nil, fmt.Errorf("%w: go-pipe %d: %v", ErrSpawn, i, err)
		}
		dr, dw, err := os.Pipe()
		if err != nil {
			gr.Close()
			gw.Close()
			p.closeAll()
			return nil, fmt.Errorf("%w: done-pipe %d: %v", ErrSpawn, i, err)
		}
		p.goRead[i], p.goWrite[i] = gr, gw
		p.doneRead[i], p.doneWrite[i] = dr, dw
	}
	return p, nil
}

// extraFiles is the child-side end of every pipe pair, passed as
// cmd.ExtraFiles so the spawned (or restarted) process inherits them at
// well-known fd offsets.
func (p *runnerPipes) extraFiles() []*os.File {
	extra := make([]*os.File, 0, 2*maxRunners)
	extra = append(extra, p.goRead...)
	extra = append(extra, p.doneWrite...)
	return extra
}

// closeChildEnds closes the ends that now live in the child so the
// parent's read of "done" observes EOF if the child dies instead of
// blocking forever.
func (p *runnerPipes) closeChildEnds() {
	for i := 0; i < maxRunners; i++ {
		p.goRead[i].Close()
		p.doneWrite[i].Close()
	}
}

func (p *runnerPipes) closeAll() {
	for i := range p.goRead {
		closeIfSet(p.goRead[i])
		closeIfSet(p.goWrite[i])
		closeIfSet(p.doneRead[i])
		closeIfSet(p.doneWrite[i])
	}
}

func closeIfSet(f *os.File) {
	if f != nil {
		f.Close()
	}
}

// ForkExecHandle is the process_handle produced by ForkExecSource.
type ForkExecHandle struct {
	mu sync.Mutex

	cmd      *exec.Cmd
	proc     *gopsprocess.Process
	goWrite  []*os.File
	doneRead []*os.File
	timeout  time.Duration
	released bool
}

// ExecuteRunner implements spec §4.B's execute_runner: post "go" on the
// runner's slot, then block reading its mailbox region off the paired
// pipe (the read completing doubles as the "done" signal). The shim's
// own implementation of filling that region is out of scope per spec
// §2 — this package only commits to the pipe-per-slot convention as the
// environment contract a preloaded shim must honor.
func (h *ForkExecHandle) ExecuteRunner(r Addr) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil, ErrDeadProcess
	}
	slot := int(r)
	if slot < 0 || slot >= maxRunners {
		return nil, fmt.Errorf("realworld: runner slot %d out of range", slot)
	}

	if !h.isAlive() {
		return nil, ErrDeadProcess
	}

	if _, err := h.goWrite[slot].Write([]byte{1}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeadProcess, err)
	}

	type result struct {
		buf []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		buf := make([]byte, mailboxRegionSize)
		_, err := io.ReadFull(h.doneRead[slot], buf)
		done <- result{buf: buf, err: err}
	}()

	if h.timeout > 0 {
		select {
		case res := <-done:
			if res.err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDeadProcess, res.err)
			}
			return res.buf, nil
		case <-time.After(h.timeout):
			return nil, ErrTimeout
		}
	}
	res := <-done
	if res.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeadProcess, res.err)
	}
	return res.buf, nil
}

func (h *ForkExecHandle) isAlive() bool {
	running, err := h.proc.IsRunning()
	return err == nil && running
}

func (h *ForkExecHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	if h.cmd.Process != nil {
		h.cmd.Process.Kill()
	}
	h.cmd.Wait()
	for _, f := range h.goWrite {
		closeIfSet(f)
	}
	for _, f := range h.doneRead {
		closeIfSet(f)
	}
}

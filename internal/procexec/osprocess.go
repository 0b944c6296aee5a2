package procexec

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/me/gotr/pkg/model"
)

// OSProcess runs one external command via os/exec. Stdout and stderr are
// drained continuously by pipe-reader goroutines into in-memory buffers, so
// ReadOutput/ReadErrorOutput are always non-blocking and the process can
// never stall on a full pipe.
type OSProcess struct {
	unitID string
	path   string
	args   []string
	dir    string
	env    []string

	cmd    *exec.Cmd
	stdout *streamBuffer
	stderr *streamBuffer

	mu       sync.Mutex
	started  bool
	done     chan struct{}
	exitCode int
}

// NewOSProcess creates an unstarted process handle for the given command.
// dir may be empty to inherit the working directory; extraEnv entries are
// appended to the current environment.
func NewOSProcess(unitID, path string, args []string, dir string, extraEnv []string) *OSProcess {
	env := os.Environ()
	env = append(env, extraEnv...)
	return &OSProcess{
		unitID: unitID,
		path:   path,
		args:   args,
		dir:    dir,
		env:    env,
		stdout: &streamBuffer{},
		stderr: &streamBuffer{},
		done:   make(chan struct{}),
	}
}

// Start spawns the command and begins draining its output pipes.
func (p *OSProcess) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return &model.LaunchError{
			UnitID:  p.unitID,
			Command: p.CommandLine(),
			Err:     errAlreadyStarted,
		}
	}

	cmd := exec.Command(p.path, p.args...)
	cmd.Dir = p.dir
	cmd.Env = p.env

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return &model.LaunchError{UnitID: p.unitID, Command: p.CommandLine(), Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return &model.LaunchError{UnitID: p.unitID, Command: p.CommandLine(), Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &model.LaunchError{UnitID: p.unitID, Command: p.CommandLine(), Err: err}
	}

	p.cmd = cmd
	p.started = true

	var readers sync.WaitGroup
	readers.Add(2)
	go drain(stdoutPipe, p.stdout, &readers)
	go drain(stderrPipe, p.stderr, &readers)

	// Wait must run after the pipe readers are done (Wait closes the pipes).
	go func() {
		readers.Wait()
		err := cmd.Wait()

		p.mu.Lock()
		if err == nil {
			p.exitCode = 0
		} else if exitErr, ok := err.(*exec.ExitError); ok {
			p.exitCode = exitErr.ExitCode()
		} else {
			p.exitCode = -1
		}
		p.mu.Unlock()

		close(p.done)
	}()

	return nil
}

// IsRunning reports whether the process was started and has not yet been
// observed to exit.
func (p *OSProcess) IsRunning() bool {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return false
	}

	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ReadOutput returns stdout bytes accumulated since the last call.
func (p *OSProcess) ReadOutput() []byte {
	return p.stdout.drainChunk()
}

// ReadErrorOutput returns stderr bytes accumulated since the last call.
func (p *OSProcess) ReadErrorOutput() []byte {
	return p.stderr.drainChunk()
}

// ExitCode returns the exit code once the process has exited.
func (p *OSProcess) ExitCode() (int, bool) {
	select {
	case <-p.done:
	default:
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, true
}

// CommandLine returns the full command for diagnostic reporting.
func (p *OSProcess) CommandLine() string {
	if len(p.args) == 0 {
		return p.path
	}
	return p.path + " " + strings.Join(p.args, " ")
}

var errAlreadyStarted = &startedError{}

type startedError struct{}

func (*startedError) Error() string { return "process already started" }

// drain copies a pipe into a streamBuffer until EOF.
func drain(r io.Reader, buf *streamBuffer, wg *sync.WaitGroup) {
	defer wg.Done()
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.append(chunk[:n])
		}
		if err != nil {
			return
		}
	}
}

// streamBuffer accumulates bytes from a pipe reader and hands them out
// exactly once to the polling side.
type streamBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *streamBuffer) append(p []byte) {
	b.mu.Lock()
	b.buf.Write(p)
	b.mu.Unlock()
}

// drainChunk returns everything accumulated since the previous call and
// resets the buffer. Returns nil when no new bytes arrived.
func (b *streamBuffer) drainChunk() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		return nil
	}
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	b.buf.Reset()
	return out
}

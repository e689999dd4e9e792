package interp

import (
	"os/exec"
	"sync"

	"golang.org/x/sys/unix"
)

type jobState int

const (
	jobRunning jobState = iota
	// jobTaken means fg took exclusive ownership of the process
	// handle; the record is evicted on the next RemoveFinished sweep.
	jobTaken
	jobExited
)

// Job is one tracked background process.
type Job struct {
	ID      int
	Command string

	mu    sync.Mutex
	state jobState
	cmd   *exec.Cmd
}

// StatusText describes the job for the jobs listing.
func (j *Job) StatusText() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state == jobRunning {
		return "Running"
	}
	return "Done"
}

// take removes the process handle from the job, leaving it in the
// taken state. Returns nil if the handle is gone already.
func (j *Job) take() *exec.Cmd {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != jobRunning {
		return nil
	}
	cmd := j.cmd
	j.cmd = nil
	j.state = jobTaken
	return cmd
}

// finished polls the job without blocking and reports whether the
// record should be evicted.
func (j *Job) finished() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch j.state {
	case jobTaken, jobExited:
		return true
	}

	if j.cmd == nil || j.cmd.Process == nil {
		j.state = jobExited
		return true
	}

	var ws unix.WaitStatus
	pid, err := unix.Wait4(j.cmd.Process.Pid, &ws, unix.WNOHANG, nil)
	if err != nil {
		// Already reaped elsewhere.
		j.state = jobExited
		return true
	}
	if pid == j.cmd.Process.Pid {
		j.state = jobExited
		j.cmd = nil
		return true
	}
	return false
}

// JobTable tracks background processes. Ids start at 1, are strictly
// increasing, and are never reused even after eviction.
type JobTable struct {
	mu     sync.Mutex
	jobs   []*Job
	nextID int
}

func NewJobTable() *JobTable {
	return &JobTable{nextID: 1}
}

// Add registers a started command and returns its job id.
func (t *JobTable) Add(command string, cmd *exec.Cmd) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.jobs = append(t.jobs, &Job{
		ID:      id,
		Command: command,
		state:   jobRunning,
		cmd:     cmd,
	})
	return id
}

// Jobs returns a snapshot of the current job records.
func (t *JobTable) Jobs() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// Get looks a job up by id.
func (t *JobTable) Get(id int) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, j := range t.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// RemoveFinished evicts every job whose process has exited or whose
// handle was taken by fg.
func (t *JobTable) RemoveFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.jobs[:0]
	for _, j := range t.jobs {
		if !j.finished() {
			kept = append(kept, j)
		}
	}
	t.jobs = kept
}

// Foreground takes exclusive ownership of the job's process, blocks
// until it exits, and returns its status. ok is false when no such
// job exists or its handle is gone.
func (t *JobTable) Foreground(id int) (status int, ok bool) {
	job := t.Get(id)
	if job == nil {
		return 0, false
	}

	cmd := job.take()
	if cmd == nil {
		return 0, false
	}

	err := cmd.Wait()
	if err == nil {
		return 0, true
	}
	if exit, isExit := err.(*exec.ExitError); isExit {
		return exit.ExitCode(), true
	}
	return 1, true
}

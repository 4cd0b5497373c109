package dispatch

import (
	"sync"
	"time"
)

// Job is a background process started by the shell.
type Job struct {
	ID        int
	Pid       int
	Name      string
	StartedAt time.Time
}

// Finished is a job that has exited.
type Finished struct {
	Job
	Err error
}

type jobEntry struct {
	job  Job
	proc Process
}

// Jobs tracks background processes until they are reaped.
type Jobs struct {
	mu      sync.Mutex
	nextID  int
	running []jobEntry
	now     func() time.Time
}

// NewJobs returns an empty registry.
func NewJobs() *Jobs {
	return &Jobs{now: time.Now}
}

// Add records a started process and returns its job entry. IDs start at 1
// and are never reused within a registry.
func (j *Jobs) Add(name string, proc Process) Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextID++
	job := Job{ID: j.nextID, Pid: proc.Pid(), Name: name, StartedAt: j.now()}
	j.running = append(j.running, jobEntry{job: job, proc: proc})
	return job
}

// Running lists jobs that have not been reaped yet, oldest first.
func (j *Jobs) Running() []Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Job, 0, len(j.running))
	for _, entry := range j.running {
		out = append(out, entry.job)
	}
	return out
}

// Reap removes every job whose process has exited, without blocking.
func (j *Jobs) Reap() []Finished {
	j.mu.Lock()
	defer j.mu.Unlock()
	var finished []Finished
	kept := j.running[:0]
	for _, entry := range j.running {
		done, err := entry.proc.TryWait()
		if !done {
			kept = append(kept, entry)
			continue
		}
		finished = append(finished, Finished{Job: entry.job, Err: err})
	}
	for i := len(kept); i < len(j.running); i++ {
		j.running[i] = jobEntry{}
	}
	j.running = kept
	return finished
}

// Abandon stops tracking all jobs. Their processes are still waited for in
// the background so they do not linger as zombies.
func (j *Jobs) Abandon() int {
	j.mu.Lock()
	entries := j.running
	j.running = nil
	j.mu.Unlock()
	for _, entry := range entries {
		go func(p Process) { _ = p.Wait() }(entry.proc)
	}
	return len(entries)
}

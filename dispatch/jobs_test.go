package dispatch

import (
	"errors"
	"testing"
	"time"
)

func TestJobsReapOnlyFinished(t *testing.T) {
	jobs := NewJobs()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	jobs.now = func() time.Time { return fixed }
	a, b, c := newFakeProc(10), newFakeProc(11), newFakeProc(12)
	ja := jobs.Add("a", a)
	jobs.Add("b", b)
	jc := jobs.Add("c", c)
	if ja.ID != 1 || jc.ID != 3 || ja.StartedAt != fixed || ja.Pid != 10 {
		t.Fatalf("unexpected jobs %+v %+v", ja, jc)
	}

	failure := errors.New("exit status 2")
	a.exit(nil)
	c.exit(failure)
	finished := jobs.Reap()
	if len(finished) != 2 || finished[0].Name != "a" || finished[1].Name != "c" {
		t.Fatalf("unexpected finished %+v", finished)
	}
	if finished[1].Err != failure {
		t.Fatalf("expected exit error to be kept, got %v", finished[1].Err)
	}
	running := jobs.Running()
	if len(running) != 1 || running[0].Name != "b" {
		t.Fatalf("unexpected running %+v", running)
	}
	if again := jobs.Reap(); len(again) != 0 {
		t.Fatalf("jobs reaped twice: %+v", again)
	}

	d := newFakeProc(13)
	if jd := jobs.Add("d", d); jd.ID != 4 {
		t.Fatalf("expected ids to keep increasing, got %d", jd.ID)
	}
}

func TestJobsAbandon(t *testing.T) {
	jobs := NewJobs()
	p := newFakeProc(1)
	jobs.Add("x", p)
	if n := jobs.Abandon(); n != 1 {
		t.Fatalf("expected 1 abandoned job, got %d", n)
	}
	if len(jobs.Running()) != 0 {
		t.Fatalf("expected empty registry")
	}
	p.exit(nil)
}

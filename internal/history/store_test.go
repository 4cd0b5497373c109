package history

import (
	"sync"
	"testing"
)

func TestStoreAppendKeepsOrderAndDuplicates(t *testing.T) {
	s := New()
	for _, line := range []string{"ls", "pwd", "ls"} {
		s.Append(line)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", s.Len())
	}
	want := []string{"ls", "pwd", "ls"}
	for i, w := range want {
		if got := s.At(i); got != w {
			t.Fatalf("At(%d) = %q, want %q", i, got, w)
		}
	}
	if s.At(-1) != "" || s.At(3) != "" {
		t.Fatalf("expected out of range lookups to be empty")
	}
}

func TestStoreEntriesIsCopy(t *testing.T) {
	s := New()
	s.Append("echo hi")
	entries := s.Entries()
	entries[0] = "mutated"
	if s.At(0) != "echo hi" {
		t.Fatalf("expected store to be unaffected by copy mutation")
	}
}

func TestStoreConcurrentAppend(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append("x")
			_ = s.Len()
		}()
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Fatalf("expected 50 entries, got %d", s.Len())
	}
}

package cron

import (
	"testing"
)

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	a := &countingJob{name: "a"}
	b := &countingJob{name: "b"}
	registry := NewRegistry(a, nil)
	registry.Register(nil)
	registry.Register(b)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != a || jobs[1] != b {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

package model

import "testing"

func TestTransitionJobStatus(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{"", StatusPending, true},
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusFailed, true},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusCompleted, StatusPending, true},
		{StatusFailed, StatusRunning, true},
		{"", StatusCompleted, false},
		{StatusPending, StatusCompleted, false},
		{StatusCompleted, StatusRunning, false},
	}
	for _, c := range cases {
		job := BatchJob{ReceptorID: "1ubq", LigandID: "2244", CenterID: "1.00_2.00_3.00", Status: c.from}
		err := TransitionJobStatus(&job, c.to)
		if c.ok && err != nil {
			t.Errorf("transition %q -> %q should be allowed: %v", c.from, c.to, err)
		}
		if !c.ok && err == nil {
			t.Errorf("transition %q -> %q should be rejected", c.from, c.to)
		}
		if c.ok && job.Status != c.to {
			t.Errorf("status not applied for %q -> %q", c.from, c.to)
		}
	}
}

func TestCenterID(t *testing.T) {
	c := Center{10.456, -3.1, 0}
	if got := c.ID(); got != "10.46_-3.10_0.00" {
		t.Fatalf("unexpected center id: %q", got)
	}
}

func TestRefID(t *testing.T) {
	if got := RefID(StructureRef{Path: "/data/prepared/1ubq.pdbqt"}); got != "1ubq" {
		t.Fatalf("unexpected ref id from path: %q", got)
	}
	if got := RefID(StructureRef{ID: "custom", Source: "/raw/protein.pdb"}); got != "custom" {
		t.Fatalf("explicit id not honored: %q", got)
	}
	if got := RefID(StructureRef{Source: "/raw/protein.pdb"}); got != "protein" {
		t.Fatalf("unexpected ref id from source: %q", got)
	}
}

func TestRecomputeCounts(t *testing.T) {
	m := BatchManifest{Jobs: []BatchJob{
		{Status: StatusPending},
		{Status: StatusRunning},
		{Status: StatusCompleted},
		{Status: StatusCompleted},
		{Status: StatusFailed},
	}}
	m.RecomputeCounts()
	if m.Total != 5 || m.Pending != 1 || m.Running != 1 || m.Completed != 2 || m.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", m)
	}
}

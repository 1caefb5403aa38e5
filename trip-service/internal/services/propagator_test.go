package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPropagateReachesEveryTarget(t *testing.T) {
	drivers := &fakeTarget{name: "drivers"}
	users := &fakeTarget{name: "users", err: errors.New("down")}
	p := NewAssignmentPropagator(time.Second, drivers, users)

	p.Propagate("d1", "ASSIGNED")
	p.Wait()

	for _, target := range []*fakeTarget{drivers, users} {
		if len(target.calls) != 1 {
			t.Fatalf("%s: expected 1 call, got %d", target.name, len(target.calls))
		}
		if got := target.calls[0]; got.driverID != "d1" || got.status != "ASSIGNED" {
			t.Errorf("%s: unexpected call %+v", target.name, got)
		}
	}
}

func TestPropagateWithoutTargets(t *testing.T) {
	p := NewAssignmentPropagator(0)
	p.Propagate("d1", "UNASSIGNED")
	p.Wait()
}

// gatedTarget holds ASSIGNED calls until release is closed.
type gatedTarget struct {
	fakeTarget
	release chan struct{}
}

func (g *gatedTarget) SetAssignmentStatus(ctx context.Context, driverID, status string) error {
	if status == "ASSIGNED" {
		<-g.release
	}
	return g.fakeTarget.SetAssignmentStatus(ctx, driverID, status)
}

func TestPropagateKeepsOrderPerDriver(t *testing.T) {
	target := &gatedTarget{fakeTarget: fakeTarget{name: "drivers"}, release: make(chan struct{})}
	p := NewAssignmentPropagator(time.Second, target)

	p.Propagate("d1", "ASSIGNED")
	p.Propagate("d1", "UNASSIGNED")
	p.Propagate("d2", "UNASSIGNED")

	deadline := time.After(2 * time.Second)
	for {
		target.mu.Lock()
		n := len(target.calls)
		target.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("other drivers were blocked behind d1")
		case <-time.After(10 * time.Millisecond):
		}
	}
	time.Sleep(50 * time.Millisecond)
	close(target.release)
	p.Wait()

	want := []propagation{{"d2", "UNASSIGNED"}, {"d1", "ASSIGNED"}, {"d1", "UNASSIGNED"}}
	if len(target.calls) != len(want) {
		t.Fatalf("calls = %+v", target.calls)
	}
	for i := range want {
		if target.calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, target.calls[i], want[i])
		}
	}
	if len(p.tails) != 0 {
		t.Errorf("queues left behind: %d", len(p.tails))
	}
}

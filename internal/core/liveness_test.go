package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// fakePinger answers probes according to the respond flag.
type fakePinger struct {
	respond atomic.Bool
	probes  atomic.Int32
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.probes.Add(1)
	if p.respond.Load() {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestMonitorRespondingPeerIsNeverEvicted(t *testing.T) {
	pinger := &fakePinger{}
	pinger.respond.Store(true)

	var deaths atomic.Int32
	m := NewMonitor(10*time.Millisecond, 5*time.Millisecond, pinger, func() {
		deaths.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	m.Stop()
	<-done

	if deaths.Load() != 0 {
		t.Fatalf("responding peer was evicted %d times", deaths.Load())
	}
	if pinger.probes.Load() < 3 {
		t.Fatalf("expected repeated probes, got %d", pinger.probes.Load())
	}
}

func TestMonitorSilentPeerDiesAfterWindow(t *testing.T) {
	pinger := &fakePinger{} // never responds

	var deaths atomic.Int32
	dead := make(chan struct{})
	m := NewMonitor(10*time.Millisecond, 5*time.Millisecond, pinger, func() {
		deaths.Add(1)
		close(dead)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	select {
	case <-dead:
	case <-time.After(2 * time.Second):
		t.Fatal("silent peer was not declared dead")
	}

	// The monitor stops after death; no further probes, no second callback.
	probes := pinger.probes.Load()
	time.Sleep(50 * time.Millisecond)
	if pinger.probes.Load() != probes {
		t.Fatal("monitor kept probing after death")
	}
	if deaths.Load() != 1 {
		t.Fatalf("onDead fired %d times", deaths.Load())
	}
}

func TestMonitorRecoversWithinWindow(t *testing.T) {
	pinger := &fakePinger{}
	pinger.respond.Store(true)

	var deaths atomic.Int32
	m := NewMonitor(10*time.Millisecond, 20*time.Millisecond, pinger, func() {
		deaths.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	// Stay responsive the whole time; a response inside the window must keep
	// the connection alive across many cycles.
	time.Sleep(80 * time.Millisecond)
	m.Stop()
	<-done

	if deaths.Load() != 0 {
		t.Fatalf("peer answering within the window was evicted %d times", deaths.Load())
	}
}

func TestMonitorStopPreventsDeathCallback(t *testing.T) {
	pinger := &fakePinger{} // never responds

	var deaths atomic.Int32
	m := NewMonitor(20*time.Millisecond, 10*time.Millisecond, pinger, func() {
		deaths.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	m.Stop()
	<-done

	if deaths.Load() != 0 {
		t.Fatalf("stopped monitor still fired onDead %d times", deaths.Load())
	}
}

func TestMonitorContextCancelIsNotDeath(t *testing.T) {
	pinger := &fakePinger{} // never responds

	var deaths atomic.Int32
	m := NewMonitor(10*time.Millisecond, time.Second, pinger, func() {
		deaths.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not exit on context cancellation")
	}

	if deaths.Load() != 0 {
		t.Fatalf("shutdown was reported as death %d times", deaths.Load())
	}
}

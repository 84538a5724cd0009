package capture

import (
	"context"
	"testing"
	"time"
)

type fakeSubscription struct {
	stopped bool
}

func (f *fakeSubscription) Stop() { f.stopped = true }

type fakeStream struct {
	err     error
	opts    Options
	deliver func(Fix)
	sub     *fakeSubscription
}

func (f *fakeStream) Watch(_ context.Context, opts Options, deliver func(Fix)) (Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.opts = opts
	f.deliver = deliver
	f.sub = &fakeSubscription{}
	return f.sub, nil
}

func TestSessionRecordsDedupedSequence(t *testing.T) {
	stream := &fakeStream{}
	session := NewSession(stream, Options{})

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.State() != StateRecording {
		t.Fatalf("expected recording state, got %s", session.State())
	}
	if stream.opts.MinDistanceMeters != 5 || stream.opts.MinInterval != time.Second {
		t.Fatalf("default subscription tuning not applied: %+v", stream.opts)
	}

	stream.deliver(Fix{Lat: 37.5665, Lng: 126.9780})
	stream.deliver(Fix{Lat: 37.5665, Lng: 126.9780})
	stream.deliver(Fix{Lat: 37.5675, Lng: 126.9790})

	session.Stop()
	if !stream.sub.stopped {
		t.Fatalf("subscription not cancelled on stop")
	}
	if session.State() != StateStopped {
		t.Fatalf("expected stopped state, got %s", session.State())
	}

	points := session.Points()
	if len(points) != 2 {
		t.Fatalf("expected 2 deduped points, got %d", len(points))
	}
	if points[0].Lat != 37.5665 || points[1].Lat != 37.5675 {
		t.Fatalf("unexpected sequence: %+v", points)
	}
}

func TestSessionJitterCollapsesToOneFix(t *testing.T) {
	stream := &fakeStream{}
	session := NewSession(stream, Options{})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	base := Fix{Lat: 37.5665, Lng: 126.9780}
	stream.deliver(base)
	for i := 0; i < 10; i++ {
		stream.deliver(Fix{Lat: base.Lat + 4e-6, Lng: base.Lng - 4e-6})
	}
	session.Stop()

	if points := session.Points(); len(points) != 1 {
		t.Fatalf("jitter should collapse to 1 point, got %d", len(points))
	}
}

func TestSessionPermissionDeniedStaysIdle(t *testing.T) {
	stream := &fakeStream{err: ErrPermissionDenied}
	session := NewSession(stream, Options{})

	if err := session.Start(context.Background()); err != ErrPermissionDenied {
		t.Fatalf("expected permission error, got %v", err)
	}
	if session.State() != StateIdle {
		t.Fatalf("expected idle state, got %s", session.State())
	}

	// Granting access later makes a retry succeed.
	stream.err = nil
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("retry after grant: %v", err)
	}
}

func TestSessionTransitions(t *testing.T) {
	stream := &fakeStream{}
	session := NewSession(stream, Options{MinDistanceMeters: 10, MinInterval: 2 * time.Second})

	// Stop and fixes before start are no-ops.
	session.Stop()
	session.OnFix(Fix{Lat: 1, Lng: 1})
	if session.State() != StateIdle || len(session.Points()) != 0 {
		t.Fatalf("idle session mutated")
	}

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if stream.opts.MinDistanceMeters != 10 {
		t.Fatalf("custom tuning not passed through")
	}
	if err := session.Start(context.Background()); err != ErrRecording {
		t.Fatalf("expected ErrRecording on double start, got %v", err)
	}
	if err := session.Reset(); err != ErrRecording {
		t.Fatalf("expected ErrRecording on reset while recording, got %v", err)
	}

	stream.deliver(Fix{Lat: 1, Lng: 1})
	session.Stop()

	// The stopped sequence is frozen.
	stream.deliver(Fix{Lat: 2, Lng: 2})
	if len(session.Points()) != 1 {
		t.Fatalf("stopped sequence mutated")
	}
	if err := session.Start(context.Background()); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}

	if err := session.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if session.State() != StateIdle || len(session.Points()) != 0 {
		t.Fatalf("reset did not clear session")
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start after reset: %v", err)
	}
}

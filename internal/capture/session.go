package capture

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"backend-walkpath/internal/shared/geo"
)

// Consecutive fixes closer than this in both axes are treated as jitter
// and dropped (~1 meter in degrees).
const coordEpsilon = 1e-5

const (
	defaultMinDistanceMeters = 5
	defaultMinInterval       = time.Second
)

var (
	// ErrPermissionDenied is returned by a PositionStream when location
	// access has not been granted.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrRecording rejects operations that are illegal while a session
	// is actively recording.
	ErrRecording = errors.New("session is recording")
	// ErrStopped rejects Start on a finished session; record again with
	// a fresh session or Reset first.
	ErrStopped = errors.New("session already stopped")
)

type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
)

// Fix is a raw position update delivered by the platform stream.
type Fix struct {
	Lat       float64
	Lng       float64
	Timestamp time.Time
}

// Options tunes the position subscription.
type Options struct {
	MinDistanceMeters float64
	MinInterval       time.Duration
}

// Subscription is a cancellable handle on an active position stream.
type Subscription interface {
	Stop()
}

// PositionStream is the platform location collaborator. Watch delivers
// fixes to the callback until the subscription is stopped, and returns
// ErrPermissionDenied when location access is missing.
type PositionStream interface {
	Watch(ctx context.Context, opts Options, deliver func(Fix)) (Subscription, error)
}

// Session turns a live position stream into a deduplicated ordered
// waypoint sequence. One Session per recording; callers needing several
// simultaneous recordings hold several sessions.
type Session struct {
	stream PositionStream
	opts   Options

	mu     sync.Mutex
	state  State
	sub    Subscription
	points []geo.Point
}

func NewSession(stream PositionStream, opts Options) *Session {
	if opts.MinDistanceMeters <= 0 {
		opts.MinDistanceMeters = defaultMinDistanceMeters
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	return &Session{
		stream: stream,
		opts:   opts,
		state:  StateIdle,
	}
}

// Start clears any prior sequence and subscribes to the position stream.
// A subscription failure leaves the session in Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateRecording:
		s.mu.Unlock()
		return ErrRecording
	case StateStopped:
		s.mu.Unlock()
		return ErrStopped
	}
	s.points = nil
	s.state = StateRecording
	s.mu.Unlock()

	// Watch may deliver synchronously, so the lock cannot be held here.
	sub, err := s.stream.Watch(ctx, s.opts, s.OnFix)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

// OnFix appends a candidate fix unless it duplicates the last appended
// point within the coordinate epsilon. Fixes arriving outside an active
// recording are dropped.
func (s *Session) OnFix(fix Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return
	}
	if n := len(s.points); n > 0 && sameLocation(s.points[n-1], fix) {
		return
	}
	s.points = append(s.points, geo.Point{Lat: fix.Lat, Lng: fix.Lng})
}

// Stop cancels the subscription and freezes the sequence. Calling Stop
// when nothing is recording is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	sub := s.sub
	s.sub = nil
	s.state = StateStopped
	s.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

// Reset clears the sequence and returns the session to Idle. Not allowed
// while recording.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRecording {
		return ErrRecording
	}
	s.points = nil
	s.state = StateIdle
	return nil
}

// Points returns a copy of the captured sequence.
func (s *Session) Points() []geo.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]geo.Point, len(s.points))
	copy(out, s.points)
	return out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func sameLocation(p geo.Point, fix Fix) bool {
	return math.Abs(p.Lat-fix.Lat) < coordEpsilon &&
		math.Abs(p.Lng-fix.Lng) < coordEpsilon
}

package attempt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/scoring"
)

type State string

const (
	StateReady      State = "ready"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Trigger records which path completed an attempt.
type Trigger string

const (
	TriggerManual  Trigger = "manual"
	TriggerTimeout Trigger = "timeout"
)

var (
	ErrInvalidTransition = errors.New("invalid attempt state transition")
	ErrSessionClosed     = errors.New("attempt session is closed")
	ErrAlreadyFinalized  = errors.New("attempt already finalized")
)

// Finalizer receives the graded submission. It runs exactly once per session.
type Finalizer func(ctx context.Context, sub scoring.Submission, answers map[uint]scoring.Answer, trigger Trigger) error

type Config struct {
	AttemptID    uint
	Questions    []scoring.Question
	PassingScore int

	// TimeLimit of zero means the attempt is untimed.
	TimeLimit    time.Duration
	TickInterval time.Duration

	// Answers seeds the collector when resuming.
	Answers   map[uint]scoring.Answer
	Finalizer Finalizer
	OnTick    func(remaining time.Duration)
	// Now stamps activity; defaults to time.Now.
	Now func() time.Time
}

// Session drives one attempt through ready -> in_progress -> completed.
type Session struct {
	cfg       Config
	collector *scoring.Collector

	mu        sync.Mutex
	state     State
	touched   time.Time
	remaining time.Duration
	stopTimer context.CancelFunc

	done    chan struct{}
	result  scoring.Submission
	trigger Trigger
	err     error
}

func NewSession(cfg Config) *Session {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		cfg:       cfg,
		collector: scoring.NewCollectorFrom(cfg.Answers),
		state:     StateReady,
		remaining: cfg.TimeLimit,
		done:      make(chan struct{}),
	}
}

func (s *Session) AttemptID() uint { return s.cfg.AttemptID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start moves the session into progress and starts the countdown if the
// attempt is timed. The countdown outlives ctx's cancellation but keeps its values.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return ErrInvalidTransition
	}
	s.state = StateInProgress
	s.touched = s.cfg.Now()

	if s.cfg.TimeLimit > 0 {
		base := context.WithoutCancel(ctx)
		timerCtx, cancel := context.WithCancel(base)
		s.stopTimer = cancel
		go s.countdown(timerCtx, base)
	}
	return nil
}

func (s *Session) countdown(ctx, finalizeCtx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state != StateInProgress {
				s.mu.Unlock()
				return
			}
			s.remaining -= s.cfg.TickInterval
			if s.remaining < 0 {
				s.remaining = 0
			}
			remaining := s.remaining
			s.mu.Unlock()

			if s.cfg.OnTick != nil {
				s.cfg.OnTick(remaining)
			}
			if remaining == 0 {
				_, _ = s.Finalize(finalizeCtx, TriggerTimeout)
				return
			}
		}
	}
}

// Remaining reports the time left and whether the attempt is timed.
func (s *Session) Remaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining, s.cfg.TimeLimit > 0
}

func (s *Session) SetChoice(questionID uint, label string) error {
	return s.mutate(func(c *scoring.Collector) { c.SetChoice(questionID, label) })
}

func (s *Session) Toggle(questionID uint, label string) error {
	return s.mutate(func(c *scoring.Collector) { c.Toggle(questionID, label) })
}

func (s *Session) SetText(questionID uint, text string) error {
	return s.mutate(func(c *scoring.Collector) { c.SetText(questionID, text) })
}

func (s *Session) mutate(fn func(*scoring.Collector)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	fn(s.collector)
	s.touched = s.cfg.Now()
	return nil
}

// LastActivity is when the session started or last changed an answer.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Timed reports whether the session runs a countdown.
func (s *Session) Timed() bool { return s.cfg.TimeLimit > 0 }

// Answers returns a snapshot of the answers collected so far.
func (s *Session) Answers() map[uint]scoring.Answer {
	return s.collector.Snapshot()
}

// Finalize scores the attempt and hands the result to the Finalizer. Manual
// submission and the countdown share this path; only the first caller
// scores. Later callers wait for that result and get ErrAlreadyFinalized.
func (s *Session) Finalize(ctx context.Context, trigger Trigger) (scoring.Submission, error) {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return scoring.Submission{}, ErrInvalidTransition
	case StateCompleted:
		s.mu.Unlock()
		select {
		case <-s.done:
		case <-ctx.Done():
			return scoring.Submission{}, ctx.Err()
		}
		return s.result, ErrAlreadyFinalized
	}

	s.state = StateCompleted
	if s.stopTimer != nil {
		s.stopTimer()
	}
	s.mu.Unlock()

	answers := s.collector.Snapshot()
	sub := scoring.Grade(s.cfg.Questions, answers, s.cfg.PassingScore)

	var err error
	if s.cfg.Finalizer != nil {
		err = s.cfg.Finalizer(ctx, sub, answers, trigger)
	}

	s.result = sub
	s.trigger = trigger
	s.err = err
	close(s.done)
	return sub, err
}

// Done is closed once the attempt has been finalized.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result returns the finalized submission and the trigger that produced it.
func (s *Session) Result() (scoring.Submission, Trigger, bool) {
	select {
	case <-s.done:
		return s.result, s.trigger, true
	default:
		return scoring.Submission{}, "", false
	}
}

// Close stops the countdown without finalizing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type Status uint8

const (
	Closed   Status = 1
	Open     Status = 2
	HalfOpen Status = 3
)

func (s Status) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrOpenCB = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(fn func() error) error
	State() Status
	Reset()
}

type Config struct {
	// RecordLength is the size of the sliding window of recent outcomes.
	RecordLength int `envconfig:"CB_RECORD_LENGTH" default:"20"`
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `envconfig:"CB_TIMEOUT" default:"10s"`
	// Percentile of failures in the window that opens the breaker.
	Percentile float64 `envconfig:"CB_PERCENTILE" default:"0.5"`
	// RecoveryRequests is the number of consecutive half-open successes needed to close.
	RecoveryRequests int `envconfig:"CB_RECOVERY_REQUESTS" default:"3"`
}

type circuitBreaker struct {
	mu  sync.Mutex
	cfg Config

	state           Status
	openedAt        time.Time
	failures        []bool
	pos             int
	halfOpenSuccess int

	now func() time.Time
}

func New(cfg Config) CircuitBreaker {
	if cfg.RecordLength <= 0 {
		cfg.RecordLength = 1
	}
	return &circuitBreaker{
		cfg:      cfg,
		state:    Closed,
		failures: make([]bool, cfg.RecordLength),
		now:      time.Now,
	}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	if !cb.allow() {
		return ErrOpenCB
	}
	err := fn()
	cb.record(err != nil)
	return err
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != Open {
		return true
	}
	if cb.now().Sub(cb.openedAt) > cb.cfg.Timeout {
		cb.state = HalfOpen
		cb.halfOpenSuccess = 0
		return true
	}
	return false
}

func (cb *circuitBreaker) record(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[cb.pos] = failed
	cb.pos = (cb.pos + 1) % len(cb.failures)

	if cb.state == HalfOpen {
		if failed {
			cb.trip()
			return
		}
		cb.halfOpenSuccess++
		if cb.halfOpenSuccess >= cb.cfg.RecoveryRequests {
			cb.reset()
		}
		return
	}

	fails := 0
	for _, f := range cb.failures {
		if f {
			fails++
		}
	}
	if float64(fails)/float64(len(cb.failures)) >= cb.cfg.Percentile {
		cb.trip()
	}
}

func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.halfOpenSuccess = 0
	cb.openedAt = cb.now()
}

func (cb *circuitBreaker) State() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.failures {
		cb.failures[i] = false
	}
	cb.halfOpenSuccess = 0
	cb.pos = 0
	cb.state = Closed
}

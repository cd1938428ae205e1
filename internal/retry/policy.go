package retry

import (
	"fmt"
	"math/rand/v2"
	"time"

	"git.home.luguber.info/inful/beetmover/internal/config"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode        config.RetryBackoffMode // fixed|linear|exponential
	Initial     time.Duration           // base delay
	Max         time.Duration           // cap for growth
	MaxAttempts int                     // total attempts including the first
	Jitter      float64                 // fraction of the delay randomized, 0..1
	MaxElapsed  time.Duration           // total budget across all attempts, 0 = unbounded
}

// DefaultPolicy returns a sensible default policy (exponential, 1s initial, 30s cap, 5 attempts, 20% jitter).
func DefaultPolicy() Policy {
	return Policy{
		Mode:        config.RetryBackoffExponential,
		Initial:     time.Second,
		Max:         30 * time.Second,
		MaxAttempts: 5,
		Jitter:      0.2,
		MaxElapsed:  5 * time.Minute,
	}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(rc config.RetryConfig) Policy {
	p := DefaultPolicy()
	if rc.MaxAttempts > 0 {
		p.MaxAttempts = rc.MaxAttempts
	}
	if rc.Initial > 0 {
		p.Initial = rc.Initial
	}
	if rc.Max > 0 {
		p.Max = rc.Max
	}
	if rc.MaxElapsed > 0 {
		p.MaxElapsed = rc.MaxElapsed
	}
	if rc.Backoff != "" {
		if mode := config.NormalizeRetryBackoff(string(rc.Backoff)); mode != "" {
			p.Mode = mode
		}
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff delay before the given retry (1-based: first retry => 1).
// Jitter randomizes the delay downward by up to Jitter fraction so simultaneous
// retries across jobs spread out.
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffLinear:
		d = time.Duration(retryCount) * p.Initial
	default: // exponential
		d = p.Initial * (1 << (retryCount - 1))
	}
	if d > p.Max {
		d = p.Max
	}
	if p.Jitter > 0 {
		d -= time.Duration(p.Jitter * rand.Float64() * float64(d))
	}
	return d
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >=1")
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		return fmt.Errorf("jitter must be within [0,1]")
	}
	return nil
}

package scanner

import (
	"sync/atomic"
	"time"
)

// State identifies where a scan session is in its lifecycle.
type State string

const (
	// StateValidating checks the root before anything else runs.
	StateValidating State = "validating"
	// StateWalking traverses the tree and fingerprints new/changed files.
	StateWalking State = "walking"
	// StateCommitting makes every upsert durable.
	StateCommitting State = "committing"
	// StateReconciling removes records for files gone from disk.
	StateReconciling State = "reconciling"
	// StateDone is the successful terminal state.
	StateDone State = "done"
	// StateAborted is the terminal state after an unrecoverable error.
	StateAborted State = "aborted"
)

// Summary reports what a completed scan did.
type Summary struct {
	Root          string        `json:"root"`
	Added         int           `json:"added"`
	Updated       int           `json:"updated"`
	Unchanged     int           `json:"unchanged"`
	HiddenSkipped int           `json:"hiddenSkipped"`
	DirsSkipped   int           `json:"dirsSkipped"`
	FileErrors    int           `json:"fileErrors"`
	Removed       int64         `json:"removed"`
	StartedAt     time.Time     `json:"startedAt"`
	Duration      time.Duration `json:"-"`
	DurationText  string        `json:"duration"`
}

// Session is the caller-owned handle for one scan. It is created by
// Scanner.Start, observable while the scan runs, and terminal once Done
// is closed: either a Summary or an error, never both.
type Session struct {
	root      string
	startedAt time.Time

	state    atomic.Value // State
	observed atomic.Int64
	hashed   atomic.Int64

	done    chan struct{}
	summary *Summary
	err     error
}

func newSession(root string) *Session {
	s := &Session{
		root:      root,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	s.state.Store(StateValidating)
	return s
}

// Root returns the normalized root this session scans. Sessions are
// only created after validation, so it is always set.
func (s *Session) Root() string {
	return s.root
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state.Load().(State)
}

// StartedAt returns when the session began.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Running reports whether the session is still in progress.
func (s *Session) Running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Progress returns live counters: files observed by the walk and files
// fingerprinted so far.
func (s *Session) Progress() (observed, hashed int64) {
	return s.observed.Load(), s.hashed.Load()
}

// Wait blocks until the session terminates and returns its result.
func (s *Session) Wait() (*Summary, error) {
	<-s.done
	return s.summary, s.err
}

// Result returns the terminal result, or (nil, nil) while the session
// is still running.
func (s *Session) Result() (*Summary, error) {
	if s.Running() {
		return nil, nil
	}
	return s.summary, s.err
}

func (s *Session) setState(state State, events Events) {
	s.state.Store(state)
	events.stateChange(state)
}

func (s *Session) finish(summary *Summary, err error, events Events) {
	s.summary = summary
	s.err = err
	if err != nil {
		s.setState(StateAborted, events)
	} else {
		s.setState(StateDone, events)
	}
	close(s.done)
}

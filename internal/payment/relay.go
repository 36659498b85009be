package payment

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrStaleOutcome  = errors.New("outcome for a widget instance that is no longer open")
	ErrScriptPending = errors.New("payment script load not reported")
	ErrScriptLoad    = errors.New("payment script failed to load in browser")
)

// RelayLoader is a ScriptLoader whose result is reported by the browser,
// which is where the gateway script actually runs.
type RelayLoader struct {
	mu       sync.Mutex
	reported bool
	err      error
}

func (l *RelayLoader) Report(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reported = true
	l.err = err
}

func (l *RelayLoader) Load(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.reported {
		return ErrScriptPending
	}
	return l.err
}

type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeDismissed   OutcomeKind = "dismissed"
	OutcomeFailed      OutcomeKind = "failed"
	OutcomeScriptError OutcomeKind = "script_error"
)

// RelayWidget is a Widget opened in the browser. Open records the instance;
// the browser's callbacks come back through Deliver tagged with the
// instance's generation.
type RelayWidget struct {
	mu        sync.Mutex
	gen       uint64
	open      bool
	cfg       Config
	onSuccess func()
	onFailure func(Failure)
}

func (w *RelayWidget) Open(cfg Config, onSuccess func(), onFailure func(Failure)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.open = true
	w.cfg = cfg
	w.onSuccess = onSuccess
	w.onFailure = onFailure
	return nil
}

// Current returns the config and generation of the open instance.
func (w *RelayWidget) Current() (Config, uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg, w.gen, w.open
}

func (w *RelayWidget) Deliver(gen uint64, kind OutcomeKind, description string) error {
	w.mu.Lock()
	if !w.open || gen != w.gen {
		w.mu.Unlock()
		return ErrStaleOutcome
	}
	w.open = false
	onSuccess, onFailure := w.onSuccess, w.onFailure
	w.mu.Unlock()

	switch kind {
	case OutcomeSuccess:
		onSuccess()
	case OutcomeDismissed:
		onFailure(Failure{Dismissed: true})
	default:
		onFailure(Failure{Description: description})
	}
	return nil
}

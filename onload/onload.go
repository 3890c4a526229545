package onload

import (
	"sync"
)

// Trigger runs instrumentation code.
type Trigger interface {
	// Fire runs fn. It may return before fn does.
	Fire(fn func())
}

// Sync is a Trigger that runs fn on the caller's goroutine, like an
// ELF constructor.
type Sync struct{}

func (Sync) Fire(fn func()) {
	fn()
}

// Async is a Trigger that runs fn on a new goroutine, so that Fire
// returns right away. This is the strategy to use from DllMain.
type Async struct{}

func (Async) Fire(fn func()) {
	go fn()
}

// Default returns the Trigger suited to the current platform.
// It is Async on Windows and Sync elsewhere.
func Default() Trigger {
	return defaultTrigger()
}

// Run fires fn using trigger, or Default if trigger is nil. The
// returned channel is closed when fn returns.
//
// fn runs at most once per call to Run.
func Run(trigger Trigger, fn func()) <-chan struct{} {
	if trigger == nil {
		trigger = Default()
	}

	done := make(chan struct{})
	once := &sync.Once{}

	trigger.Fire(func() {
		once.Do(func() {
			defer close(done)
			fn()
		})
	})

	return done
}

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter displays a single-line progress message with elapsed or
// remaining time. When stdout is not a terminal the printer stays silent, so
// piped output is not polluted with control sequences.
//
// Usage:
//
//	p := NewProgressPrinter(...)
//	p.Start()
//	defer p.Stop()
//
// A ProgressPrinter is single-use: Start may be called at most once and the
// instance cannot be restarted after Stop. Stop is safe to call multiple
// times and from multiple goroutines.
type ProgressPrinter struct {
	prefix      string
	phase       atomic.Value        // current phase name
	stopPhases  map[string]struct{} // phases that trigger a graceful shutdown
	startTime   time.Time
	ticker      atomic.Pointer[time.Ticker]
	stopChan    chan struct{}
	done        chan struct{} // closed when the display goroutine exits
	started     atomic.Bool
	interactive bool
	countdown   time.Duration // 0 means count up
}

func newPrinter(prefix, phase string, countdown time.Duration, stopPhases []string) *ProgressPrinter {
	stopSet := make(map[string]struct{}, len(stopPhases))
	for _, p := range stopPhases {
		stopSet[p] = struct{}{}
	}
	p := &ProgressPrinter{
		prefix:      prefix,
		stopPhases:  stopSet,
		countdown:   countdown,
		interactive: term.IsTerminal(int(os.Stdout.Fd())),
	}
	p.phase.Store(phase)
	return p
}

// NewProgressPrinter creates a progress printer showing elapsed time.
// stopPhases name phases that trigger automatic cleanup when set via Callback.
func NewProgressPrinter(prefix string, phase string, stopPhases ...string) *ProgressPrinter {
	return newPrinter(prefix, phase, 0, stopPhases)
}

// NewCountdownProgressPrinter creates a progress printer counting down from
// duration. stopPhases name phases that trigger automatic cleanup when set
// via Callback.
func NewCountdownProgressPrinter(prefix string, phase string, duration time.Duration, stopPhases ...string) *ProgressPrinter {
	return newPrinter(prefix, phase, duration, stopPhases)
}

// Start begins displaying progress updates in a background goroutine.
// Panics if called more than once on the same instance.
func (p *ProgressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		panic("ProgressPrinter.Start called more than once")
	}
	if !p.interactive {
		return
	}

	p.done = make(chan struct{})
	p.stopChan = make(chan struct{})
	p.startTime = time.Now()
	ticker := time.NewTicker(progressUpdateInterval)
	p.ticker.Store(ticker)

	fmt.Printf("\r%s (%s...)   ", p.prefix, p.phase.Load().(string))

	go p.loop(ticker)
}

func (p *ProgressPrinter) loop(ticker *time.Ticker) {
	defer close(p.done)

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			phase := p.phase.Load().(string)
			if _, stop := p.stopPhases[phase]; stop {
				return
			}
			p.printProgress(phase, p.seconds())
		}
	}
}

// seconds returns the value to display: elapsed time when counting up,
// remaining time when counting down (clamped to zero).
func (p *ProgressPrinter) seconds() int {
	elapsed := time.Since(p.startTime)
	if p.countdown == 0 {
		return int(elapsed.Seconds())
	}
	remaining := p.countdown - elapsed
	if remaining <= 0 {
		return 0
	}
	// Round to the nearest second
	return int(remaining.Seconds() + 0.5)
}

func (p *ProgressPrinter) printProgress(phase string, seconds int) {
	if seconds > 0 {
		fmt.Printf("\r%s (%s %ds)   ", p.prefix, phase, seconds)
	} else {
		fmt.Printf("\r%s (%s...)   ", p.prefix, phase)
	}
}

// Callback returns a progress callback that updates the displayed phase.
// Setting a stop phase stops the printer. Safe for concurrent use.
func (p *ProgressPrinter) Callback() func(phase string) {
	return func(phase string) {
		p.phase.Store(phase)
		if _, stop := p.stopPhases[phase]; stop {
			p.Stop()
		}
	}
}

// Stop stops the progress display and clears the line. Only the first call
// stops the ticker and waits for the display goroutine to finish.
func (p *ProgressPrinter) Stop() {
	ticker := p.ticker.Swap(nil)
	if ticker == nil {
		return
	}

	ticker.Stop()
	close(p.stopChan)
	<-p.done

	fmt.Print(clearLineSequence)
}

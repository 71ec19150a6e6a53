package watcher

import (
	"context"
	"time"

	"github.com/ritzau/trustflow/pkg/logging"
)

// Debouncer batches rapid file system events to avoid re-rendering on
// every intermediate save. A burst of changes produces one output
// event once the input has been quiet for quietPeriod, or after
// maxWait at the latest.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run processes events and applies debouncing logic
func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet   *time.Timer
		longest *time.Timer
		quietC  <-chan time.Time
		maxC    <-chan time.Time
		pending *ChangeEvent
		count   int
	)

	flush := func() {
		if pending == nil {
			return
		}

		logging.Debug("flushing change events", "count", count)
		d.output <- *pending

		pending = nil
		count = 0
		if quiet != nil {
			quiet.Stop()
		}
		if longest != nil {
			longest.Stop()
		}
		quietC, maxC = nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			pending = &event
			count++

			// Restart the quiet period on every event
			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				quiet.Reset(d.quietPeriod)
			}
			quietC = quiet.C

			// The max wait runs from the first event of a burst
			if maxC == nil {
				if longest == nil {
					longest = time.NewTimer(d.maxWait)
				} else {
					longest.Reset(d.maxWait)
				}
				maxC = longest.C
			}

		case <-quietC:
			flush()

		case <-maxC:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

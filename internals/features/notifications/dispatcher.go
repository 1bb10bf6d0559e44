package notifications

import (
	"context"
	"log"
	"sync"
	"time"
)

type DispatcherOptions struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{
		Workers:     2,
		QueueSize:   256,
		SendTimeout: 10 * time.Second,
	}
}

// Dispatcher hands events to a Gateway on background workers. NotifyAsync
// never blocks: when the queue is full the event is dropped and logged.
type Dispatcher struct {
	gw      Gateway
	queue   chan Event
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(gw Gateway, opts DispatcherOptions) *Dispatcher {
	def := DefaultDispatcherOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = def.SendTimeout
	}

	d := &Dispatcher{
		gw:      gw,
		queue:   make(chan Event, opts.QueueSize),
		timeout: opts.SendTimeout,
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

func (d *Dispatcher) NotifyAsync(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Printf("[Notify] DROP %s applicant=%s (dispatcher closed)", ev.Kind, ev.ApplicantID)
		return
	}
	select {
	case d.queue <- ev:
	default:
		log.Printf("[Notify] DROP %s applicant=%s (queue full)", ev.Kind, ev.ApplicantID)
	}
}

// Close stops accepting events and waits for queued ones until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Notify] PANIC %s applicant=%s: %v", ev.Kind, ev.ApplicantID, r)
		}
	}()

	if err := d.gw.Send(ctx, ev); err != nil {
		log.Printf("[Notify] ERROR %s applicant=%s: %v", ev.Kind, ev.ApplicantID, err)
	}
}

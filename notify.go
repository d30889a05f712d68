package authcore

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// notifyDispatcher delivers in-app notifications on a background
// goroutine so a slow Notifier never blocks an auth flow. Dispatch is
// best-effort: with DropIfFull set, a full buffer drops the notification
// and bumps the dropped counter instead of waiting.
type notifyDispatcher struct {
	cfg       NotifyConfig
	sink      Notifier
	ch        chan Notification
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newNotifyDispatcher(cfg NotifyConfig, sink Notifier) *notifyDispatcher {
	if sink == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	d := &notifyDispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan Notification, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *notifyDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.ch:
			d.deliver(n)
		case <-d.done:
			for {
				select {
				case n := <-d.ch:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *notifyDispatcher) deliver(n Notification) {
	if err := d.sink.Notify(context.Background(), n); err != nil {
		log.Printf("authcore: notification %s for user %s failed: %v", n.Kind, n.UserID, err)
	}
}

// Dispatch enqueues a notification. Safe to call on a nil or closed
// dispatcher.
func (d *notifyDispatcher) Dispatch(ctx context.Context, n Notification) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- n:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- n:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops the worker after draining buffered notifications.
func (d *notifyDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *notifyDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

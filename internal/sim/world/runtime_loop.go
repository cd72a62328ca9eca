package world

import (
	"context"
	"time"
)

// Run drives the world at TickRateHz, advancing Dt per tick. Requests and
// observer sessions are only touched from this goroutine.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.closeObservers()

	var pendingRequests []ActivityRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.requests:
			pendingRequests = append(pendingRequests, req)
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case <-ticker.C:
			// Unit failures are logged and recorded in the tick log.
			_ = w.stepInternal(w.cfg.Dt, pendingRequests)
			pendingRequests = pendingRequests[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

func (w *World) TickRateHz() int { return w.cfg.TickRateHz }

// sendLatest enqueues b, dropping the oldest queued message if ch is full.
// It reports whether b was queued.
func sendLatest(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return true
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
		return true
	default:
		return false
	}
}

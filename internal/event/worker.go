package event

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type worker struct {
	mutex         sync.RWMutex
	subscriptions map[string][]func(event Queueable)
}

var (
	instance = &worker{
		subscriptions: map[string][]func(event Queueable){},
	}
	l = log.WithField("context", "event_worker")
)

// Subscribe registers a callback for events of the given type. Callbacks run
// on the worker goroutine, one event at a time.
func Subscribe(eventType string, fn func(event Queueable)) {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()
	instance.subscriptions[eventType] = append(instance.subscriptions[eventType], fn)
}

func RunWorker() context.CancelFunc {
	ctx, cancelFunc := context.WithCancel(context.Background())
	instance.Run(ctx)
	return cancelFunc
}

func (w *worker) Run(ctx context.Context) {
	done := ctx.Done()

	go func() {
		l.Trace("events runner go")
		var event Queueable
		for {
			select {
			case <-done:
				l.Info("shutting down event worker by cancelled context")
				return
			default:
				time.Sleep(1 * time.Millisecond)
				event = Bus.dequeue()
				if event == nil {
					continue
				}

				if event.Expired() {
					continue
				}

				w.mutex.RLock()
				subscribers, ok := w.subscriptions[event.Type()]
				w.mutex.RUnlock()
				if !ok {
					Bus.Enqueue(event)
					continue
				}
				for _, sub := range subscribers {
					sub(event)
					if event.IsDropped() {
						break
					}
				}

				if event.IsDropped() {
					continue
				}
				if !event.IsProcessed() {
					Bus.Enqueue(event)
				}
			}
		}
	}()
}

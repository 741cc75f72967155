package funnel

import (
	"context"
	"sync"
	"time"

	"github.com/mbolis/pathfinders/log"
	"github.com/mbolis/pathfinders/metrics"
	"github.com/mbolis/pathfinders/model"
	"golang.org/x/sync/errgroup"
)

// Sender delivers one submission. Any error means the submission was not accepted.
type Sender interface {
	Send(ctx context.Context, sub model.Submission, origin model.Origin) error
}

type job struct {
	store      *FormStore
	submission model.Submission
	origin     model.Origin
}

// Dispatcher fires submissions without making the caller wait for them.
// Each submission gets a single attempt; a failed one is appended to the
// backlog of its client scope and never retried.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	group   errgroup.Group

	// serializes backlog read-modify-writes between concurrent failed sends
	backlogMu sync.Mutex
}

func NewDispatcher(sender Sender, timeout time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, timeout: timeout}
}

// Dispatch returns immediately; delivery happens in the background.
func (d *Dispatcher) Dispatch(store *FormStore, sub model.Submission, origin model.Origin) {
	j := job{store: store, submission: sub, origin: origin}
	d.group.Go(func() error {
		d.send(j)
		return nil
	})
}

// Wait blocks until every dispatched submission has settled.
func (d *Dispatcher) Wait() {
	d.group.Wait()
}

func (d *Dispatcher) send(j job) {
	sub := j.submission
	fields := log.Fields{
		"session": sub.SessionID,
		"step":    sub.StepType,
		"action":  sub.Action,
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.sender.Send(ctx, sub, j.origin)
	if err == nil {
		metrics.Dispatched.WithLabelValues(string(sub.StepType), "ok").Inc()
		log.WithFields(fields).Debug("funnel.dispatch: delivered")
		return
	}

	metrics.Dispatched.WithLabelValues(string(sub.StepType), "failed").Inc()
	log.WithFields(fields).Warnf("funnel.dispatch: %s", err)

	bctx, bcancel := context.WithTimeout(context.Background(), d.timeout)
	defer bcancel()
	d.backlogMu.Lock()
	err = j.store.AppendBacklog(bctx, sub)
	d.backlogMu.Unlock()
	if err != nil {
		log.WithFields(fields).Errorf("funnel.dispatch.backlog: %s", err)
		return
	}
	metrics.Backlogged.Inc()
}

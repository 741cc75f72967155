// Package submissions receives step submissions, records them and
// forwards them to the external sink.
package submissions

import (
	"context"
	"time"

	"github.com/mbolis/pathfinders/log"
	"github.com/mbolis/pathfinders/metrics"
	"github.com/mbolis/pathfinders/model"
	"github.com/mbolis/pathfinders/sink"
	"github.com/pkg/errors"
)

// ISO timestamp with milliseconds, as browsers produce them.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

var ErrMissingFields = errors.New("submissions: missing stepType or sessionId")

type Sink interface {
	Send(ctx context.Context, sub model.Submission) (sink.Response, error)
}

type Service struct {
	log  *FileLog
	sink Sink
	now  func() time.Time
}

func NewService(log *FileLog, sink Sink) *Service {
	return &Service{log: log, sink: sink, now: time.Now}
}

func (s *Service) Log() *FileLog {
	return s.log
}

// Submit stamps sub with the server fields, records it and forwards it.
// The returned submission is the stamped one. A recording failure is
// logged and does not fail the submission; a sink failure does.
func (s *Service) Submit(ctx context.Context, sub model.Submission, origin model.Origin) (model.Submission, error) {
	if sub.StepType == "" || sub.SessionID == "" {
		return sub, ErrMissingFields
	}

	sub.ServerTimestamp = s.now().UTC().Format(timestampFormat)
	sub.IPAddress = origin.IPAddress
	sub.UserAgent = origin.UserAgent

	if err := s.log.Append(sub); err != nil {
		log.WithFields(log.Fields{"session": sub.SessionID, "step": sub.StepType}).
			Warnf("submissions.log: %s", err)
	}

	if _, err := s.sink.Send(ctx, sub); err != nil {
		metrics.SinkRequests.WithLabelValues("failed").Inc()
		return sub, errors.Wrap(err, "submissions.sink")
	}
	metrics.SinkRequests.WithLabelValues("ok").Inc()
	return sub, nil
}

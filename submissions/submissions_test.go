package submissions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mbolis/pathfinders/model"
	"github.com/mbolis/pathfinders/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu   sync.Mutex
	err  error
	sent []model.Submission
}

func (s *fakeSink) Send(_ context.Context, sub model.Submission) (sink.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sub)
	if s.err != nil {
		return sink.Response{}, s.err
	}
	return sink.Response{Success: true}, nil
}

func submission(session string, step model.StepType, action model.Action) model.Submission {
	return model.NewSubmission(model.Session{ID: session}, model.FormData{}, step, action, time.Now())
}

func TestSubmitStampsAndRecords(t *testing.T) {
	dir := t.TempDir()
	sk := &fakeSink{}
	svc := NewService(NewFileLog(dir), sk)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	got, err := svc.Submit(context.Background(), submission("abc", model.Step1, model.ActionContinue),
		model.Origin{IPAddress: "10.1.1.1", UserAgent: "agent"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", got.ServerTimestamp)
	assert.Equal(t, "10.1.1.1", got.IPAddress)
	assert.Equal(t, "agent", got.UserAgent)

	require.Len(t, sk.sent, 1)
	assert.Equal(t, got, sk.sent[0])

	all, err := svc.Log().List(model.Step1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "abc", all[0].SessionID)

	files, err := filepath.Glob(filepath.Join(dir, "step1", "step1-abc-*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSubmitValidation(t *testing.T) {
	sk := &fakeSink{}
	svc := NewService(NewFileLog(t.TempDir()), sk)

	_, err := svc.Submit(context.Background(), submission("", model.Step1, model.ActionContinue), model.Origin{})
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Submit(context.Background(), model.Submission{SessionID: "abc"}, model.Origin{})
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Empty(t, sk.sent)
}

func TestSubmitSinkFailure(t *testing.T) {
	sk := &fakeSink{err: errors.New("boom")}
	svc := NewService(NewFileLog(t.TempDir()), sk)

	_, err := svc.Submit(context.Background(), submission("abc", model.Step2, model.ActionSkip), model.Origin{})
	assert.Error(t, err)

	all, err := svc.Log().List(model.Step2)
	require.NoError(t, err)
	assert.Len(t, all, 1, "recorded even when the sink fails")
}

func TestFileLogUnsafeSessionID(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLog(dir)

	require.NoError(t, l.Append(submission("../../etc/passwd", model.Step3, model.ActionFinish)))

	files, err := os.ReadDir(filepath.Join(dir, "step3"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	for _, f := range files {
		assert.NotContains(t, f.Name(), "/")
		assert.NotContains(t, f.Name(), "..")
	}

	assert.Error(t, l.Append(submission("abc", "Step9", model.ActionFinish)))
}

func TestFileLogListEmpty(t *testing.T) {
	all, err := NewFileLog(t.TempDir()).List(model.Step2)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestStats(t *testing.T) {
	svc := NewService(NewFileLog(t.TempDir()), &fakeSink{})
	ctx := context.Background()
	now := time.Now()

	for _, s := range []model.Submission{
		submission("a", model.Step1, model.ActionContinue),
		submission("b", model.Step1, model.ActionContinue),
		submission("c", model.Step1, model.ActionContinue),
		submission("d", model.Step1, model.ActionSkip),
		submission("a", model.Step2, model.ActionContinue),
		submission("b", model.Step2, model.ActionContinue),
		submission("a", model.Step3, model.ActionFinish),
	} {
		_, err := svc.Submit(ctx, s, model.Origin{})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(now)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 7, stats.Last24h)
	assert.Equal(t, 1, stats.Finished)
	assert.Equal(t, 4, stats.Steps[model.Step1].Sessions)
	assert.NotEmpty(t, stats.Steps[model.Step3].LastSubmission)
	assert.InDelta(t, 0.5, stats.DropOffStep1To2, 1e-9)
	assert.InDelta(t, 0.5, stats.DropOffStep2To3, 1e-9)

	later, err := svc.Stats(now.Add(48 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, later.Last24h)
}

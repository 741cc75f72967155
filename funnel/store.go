package funnel

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/mbolis/pathfinders/model"
	"github.com/pkg/errors"
)

const (
	KeyFormData  = "pathfinders-form-data"
	KeySessionID = "pathfinders-session-id"
	KeyBacklog   = "app-data"
)

// KeyValue is the per-client persisted store the funnel state lives in.
type KeyValue interface {
	Get(ctx context.Context, scope, key string) ([]byte, bool, error)
	Put(ctx context.Context, scope, key string, value []byte) error
}

// FormStore keeps the session, the accumulated answers and the failed
// submission backlog of one client scope.
type FormStore struct {
	kv    KeyValue
	scope string
}

func NewFormStore(kv KeyValue, scope string) *FormStore {
	return &FormStore{kv: kv, scope: scope}
}

// Load restores the session and form of the scope. A new session is
// created from device only when none was persisted yet.
func (s *FormStore) Load(ctx context.Context, device model.DeviceInfo) (model.Session, model.FormData, error) {
	session, ok, err := s.Session(ctx)
	if err != nil {
		return session, model.FormData{}, err
	}
	if !ok {
		session, err = model.NewSession(device)
		if err != nil {
			return session, model.FormData{}, errors.Wrap(err, "funnel.new_session")
		}
		if err := s.put(ctx, KeySessionID, session); err != nil {
			return session, model.FormData{}, err
		}
	}

	form, err := s.Form(ctx)
	return session, form, err
}

// Session returns the persisted session, if any.
func (s *FormStore) Session(ctx context.Context) (model.Session, bool, error) {
	var session model.Session
	ok, err := s.get(ctx, KeySessionID, &session)
	return session, ok && session.ID != "", err
}

func (s *FormStore) Form(ctx context.Context) (model.FormData, error) {
	var form model.FormData
	_, err := s.get(ctx, KeyFormData, &form)
	return form, err
}

// Update merges partial into the persisted form and returns the result.
func (s *FormStore) Update(ctx context.Context, partial model.FormData) (model.FormData, error) {
	form, err := s.Form(ctx)
	if err != nil {
		return form, err
	}
	form = form.Merge(partial)
	return form, s.put(ctx, KeyFormData, form)
}

func (s *FormStore) Backlog(ctx context.Context) ([]model.Submission, error) {
	var backlog []model.Submission
	_, err := s.get(ctx, KeyBacklog, &backlog)
	return backlog, err
}

// AppendBacklog queues a submission that could not be delivered.
func (s *FormStore) AppendBacklog(ctx context.Context, sub model.Submission) error {
	backlog, err := s.Backlog(ctx)
	if err != nil {
		return err
	}
	return s.put(ctx, KeyBacklog, append(backlog, sub))
}

func (s *FormStore) get(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := s.kv.Get(ctx, s.scope, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, errors.Wrapf(err, "funnel.store.decode %s", key)
	}
	return true, nil
}

func (s *FormStore) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "funnel.store.encode %s", key)
	}
	return s.kv.Put(ctx, s.scope, key, data)
}

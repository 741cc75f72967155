package funnel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mbolis/pathfinders/model"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (kv *memKV) Get(_ context.Context, scope, key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[scope+"/"+key]
	return v, ok, nil
}

func (kv *memKV) Put(_ context.Context, scope, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[scope+"/"+key] = append([]byte(nil), value...)
	return nil
}

var errSinkDown = errors.New("sink down")

// fakeSender records every submission and fails when fail is set.
type fakeSender struct {
	mu   sync.Mutex
	fail bool
	sent []model.Submission
}

func (s *fakeSender) Send(_ context.Context, sub model.Submission, _ model.Origin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sub)
	if s.fail {
		return errSinkDown
	}
	return nil
}

func (s *fakeSender) submissions() []model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Submission(nil), s.sent...)
}

// faultyKV wraps memKV with a slow backlog read and an optional failing
// write of the form under one scope.
type faultyKV struct {
	*memKV
	backlogDelay time.Duration

	mu           sync.Mutex
	formPuts     int
	failFormPut  int
	failSessions bool
}

var errStoreDown = errors.New("store down")

func (kv *faultyKV) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	if key == KeyBacklog {
		time.Sleep(kv.backlogDelay)
	}
	return kv.memKV.Get(ctx, scope, key)
}

func (kv *faultyKV) Put(ctx context.Context, scope, key string, value []byte) error {
	kv.mu.Lock()
	switch key {
	case KeyFormData:
		kv.formPuts++
		if kv.formPuts == kv.failFormPut {
			kv.mu.Unlock()
			return errStoreDown
		}
	case KeySessionID:
		if kv.failSessions {
			kv.mu.Unlock()
			return errStoreDown
		}
	}
	kv.mu.Unlock()
	return kv.memKV.Put(ctx, scope, key, value)
}

// pairedSender fails every send, but only once two sends are in flight
// together.
type pairedSender struct {
	arrived sync.WaitGroup
}

func newPairedSender() *pairedSender {
	s := &pairedSender{}
	s.arrived.Add(2)
	return s
}

func (s *pairedSender) Send(context.Context, model.Submission, model.Origin) error {
	s.arrived.Done()
	s.arrived.Wait()
	return errSinkDown
}

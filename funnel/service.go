// Package funnel runs the four-step data collection funnel of each client:
// the step state machine, the persisted form state and best-effort
// submission dispatch.
package funnel

import (
	"context"
	"sync"
	"time"

	"github.com/mbolis/pathfinders/metrics"
	"github.com/mbolis/pathfinders/model"
	"github.com/mbolis/pathfinders/questions"
)

// View is what a client needs to render its current step.
type View struct {
	SessionID    string              `json:"sessionId"`
	Step         Step                `json:"step"`
	Category     int                 `json:"category"`
	Categories   int                 `json:"categories"`
	Form         model.FormData      `json:"form"`
	Questions    *questions.Category `json:"questions,omitempty"`
	Answered     int                 `json:"answered,omitempty"`
	MinAnswered  int                 `json:"minAnswered,omitempty"`
	CanAdvance   bool                `json:"canAdvance"`
	LastCategory bool                `json:"lastCategory,omitempty"`
}

type funnel struct {
	mu      sync.Mutex
	store   *FormStore
	session model.Session
	state   State
	seen    time.Time
}

// Service keeps one funnel per client scope. Positions live in memory;
// session and answers live in the store, so an evicted funnel resumes
// at Step1 with its answers intact.
type Service struct {
	kv         KeyValue
	ctrl       Controller
	dispatcher *Dispatcher
	now        func() time.Time

	mu      sync.Mutex
	funnels map[string]*funnel
}

func NewService(kv KeyValue, catalog *questions.Catalog, dispatcher *Dispatcher) *Service {
	return &Service{
		kv:         kv,
		ctrl:       Controller{Catalog: catalog},
		dispatcher: dispatcher,
		now:        time.Now,
		funnels:    map[string]*funnel{},
	}
}

// Open starts the funnel of scope, or resumes it where it was.
func (s *Service) Open(ctx context.Context, scope string, device model.DeviceInfo) (View, error) {
	s.mu.Lock()
	f, ok := s.funnels[scope]
	s.mu.Unlock()

	if !ok {
		store := NewFormStore(s.kv, scope)
		session, _, err := store.Load(ctx, device)
		if err != nil {
			return View{}, err
		}
		f = s.register(scope, store, session)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = s.now()
	return s.view(ctx, f)
}

func (s *Service) View(ctx context.Context, scope string) (View, error) {
	var view View
	err := s.with(ctx, scope, func(f *funnel) (err error) {
		view, err = s.view(ctx, f)
		return
	})
	return view, err
}

// Next validates the current step and advances. A submission is
// dispatched for every step change except between Step3 categories.
func (s *Service) Next(ctx context.Context, scope string, in Input, origin model.Origin) (View, error) {
	var view View
	err := s.with(ctx, scope, func(f *funnel) error {
		form, err := f.store.Form(ctx)
		if err != nil {
			return err
		}
		out, err := s.ctrl.Next(f.state, form, in)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, f, out, origin); err != nil {
			return err
		}
		metrics.Transitions.WithLabelValues("next", f.state.Step.String()).Inc()
		view, err = s.view(ctx, f)
		return err
	})
	return view, err
}

// Skip dispatches a Skip submission with the partial data and jumps to Step4.
func (s *Service) Skip(ctx context.Context, scope string, in Input, origin model.Origin) (View, error) {
	var view View
	err := s.with(ctx, scope, func(f *funnel) error {
		form, err := f.store.Form(ctx)
		if err != nil {
			return err
		}
		out, err := s.ctrl.Skip(f.state, form, in)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, f, out, origin); err != nil {
			return err
		}
		metrics.Transitions.WithLabelValues("skip", f.state.Step.String()).Inc()
		view, err = s.view(ctx, f)
		return err
	})
	return view, err
}

func (s *Service) Back(ctx context.Context, scope string) (View, error) {
	var view View
	err := s.with(ctx, scope, func(f *funnel) error {
		st, err := s.ctrl.Back(f.state)
		if err != nil {
			return err
		}
		f.state = st
		metrics.Transitions.WithLabelValues("back", st.Step.String()).Inc()
		view, err = s.view(ctx, f)
		return err
	})
	return view, err
}

// Answer records one Step3 answer. It is persisted at once, without a submission.
func (s *Service) Answer(ctx context.Context, scope, questionID string, raw []byte) (View, error) {
	var view View
	err := s.with(ctx, scope, func(f *funnel) error {
		if f.state.Step != Step3 {
			return ErrInvalidTransition
		}
		q, _, ok := s.ctrl.Catalog.Question(questionID)
		if !ok {
			return &questions.AnswerError{QuestionID: questionID, Message: "unknown question"}
		}
		answer, err := q.Decode(raw)
		if err != nil {
			return err
		}
		partial, err := q.Apply(answer)
		if err != nil {
			return err
		}
		if _, err := f.store.Update(ctx, partial); err != nil {
			return err
		}
		view, err = s.view(ctx, f)
		return err
	})
	return view, err
}

// Summary reads the recap from the store. Only available on Step4.
func (s *Service) Summary(ctx context.Context, scope string) (Summary, error) {
	var summary Summary
	err := s.with(ctx, scope, func(f *funnel) error {
		if f.state.Step != Step4 {
			return ErrInvalidTransition
		}
		form, err := f.store.Form(ctx)
		if err != nil {
			return err
		}
		summary = Summarize(f.session, form)
		return nil
	})
	return summary, err
}

// Backlog returns the submissions of scope that could not be delivered.
func (s *Service) Backlog(ctx context.Context, scope string) ([]model.Submission, error) {
	return NewFormStore(s.kv, scope).Backlog(ctx)
}

// Cleanup evicts funnels not touched since cutoff and returns how many.
func (s *Service) Cleanup(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for scope, f := range s.funnels {
		f.mu.Lock()
		idle := f.seen.Before(cutoff)
		f.mu.Unlock()
		if idle {
			delete(s.funnels, scope)
			n++
		}
	}
	metrics.ActiveFunnels.Sub(float64(n))
	return n
}

// with runs fn on the funnel of scope under its lock. A funnel that is not
// in memory is restored at Step1 if its session was persisted.
func (s *Service) with(ctx context.Context, scope string, fn func(*funnel) error) error {
	s.mu.Lock()
	f, ok := s.funnels[scope]
	s.mu.Unlock()

	if !ok {
		store := NewFormStore(s.kv, scope)
		session, found, err := store.Session(ctx)
		if err != nil {
			return err
		}
		if !found {
			return ErrNoFunnel
		}
		f = s.register(scope, store, session)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = s.now()
	return fn(f)
}

// register adds a funnel for a loaded session at Step1, unless another
// request registered one first.
func (s *Service) register(scope string, store *FormStore, session model.Session) *funnel {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.funnels[scope]
	if !ok {
		f = &funnel{store: store, session: session, state: State{Step: Step1}}
		s.funnels[scope] = f
		metrics.ActiveFunnels.Inc()
	}
	return f
}

func (s *Service) apply(ctx context.Context, f *funnel, out Outcome, origin model.Origin) error {
	form, err := f.store.Form(ctx)
	if err != nil {
		return err
	}
	// the submission sees the answers but not the defaults
	snapshot := form.Merge(out.Partial)
	if _, err := f.store.Update(ctx, out.Partial.Merge(out.Defaults)); err != nil {
		return err
	}

	if c := out.Candidate; c != nil {
		sub := model.NewSubmission(f.session, Collected(c.Step, snapshot), c.Step, c.Action, s.now())
		s.dispatcher.Dispatch(f.store, sub, origin)
	}
	f.state = out.State
	return nil
}

func (s *Service) view(ctx context.Context, f *funnel) (View, error) {
	form, err := f.store.Form(ctx)
	if err != nil {
		return View{}, err
	}

	catalog := s.ctrl.Catalog
	view := View{
		SessionID:  f.session.ID,
		Step:       f.state.Step,
		Categories: len(catalog.Categories),
		Form:       form,
	}
	switch f.state.Step {
	case Step1, Step2:
		view.CanAdvance = true
	case Step3:
		view.Category = f.state.Category
		view.Questions = &catalog.Categories[f.state.Category]
		view.Answered = catalog.Answered(f.state.Category, form)
		view.MinAnswered = catalog.MinAnswered
		view.CanAdvance = catalog.CanAdvance(f.state.Category, form)
		view.LastCategory = f.state.Category == len(catalog.Categories)-1
	}
	return view, nil
}

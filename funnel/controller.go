package funnel

import (
	"fmt"
	"strings"

	"github.com/mbolis/pathfinders/model"
	"github.com/mbolis/pathfinders/questions"
)

type Step int

const (
	Step1 Step = iota + 1
	Step2
	Step3
	Step4
)

func (s Step) String() string {
	switch s {
	case Step1, Step2, Step3, Step4:
		return fmt.Sprintf("Step%d", int(s))
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is the position of one funnel. Category is meaningful only in Step3.
type State struct {
	Step     Step `json:"step"`
	Category int  `json:"category"`
}

// Input carries the raw values typed into the current step.
type Input struct {
	PostalCode string `json:"postalCode"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// Candidate asks for one submission to be dispatched.
type Candidate struct {
	Step   model.StepType
	Action model.Action
}

// Outcome is the result of a successful transition. Partial and Defaults
// are stored together; the candidate is snapshotted without Defaults.
type Outcome struct {
	State     State
	Partial   model.FormData
	Candidate *Candidate
	Defaults  model.FormData
}

// Controller holds the transition rules. It keeps no state of its own.
type Controller struct {
	Catalog *questions.Catalog
}

func (c Controller) lastCategory() int {
	return len(c.Catalog.Categories) - 1
}

// Next validates the current step and moves forward by one.
func (c Controller) Next(st State, form model.FormData, in Input) (Outcome, error) {
	switch st.Step {
	case Step1:
		code, err := ValidatePostalCode(in.PostalCode)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			State:     State{Step: Step2},
			Partial:   model.FormData{PostalCode: model.String(code)},
			Candidate: &Candidate{model.Step1, model.ActionContinue},
		}, nil

	case Step2:
		name, email, err := ValidateContact(in.Name, in.Email)
		if err != nil {
			return Outcome{}, err
		}
		partial := model.FormData{Name: model.String(name), Email: model.String(email)}
		return Outcome{
			State:     State{Step: Step3},
			Partial:   partial,
			Candidate: &Candidate{model.Step2, model.ActionContinue},
			Defaults:  c.Catalog.Defaults(form.Merge(partial)),
		}, nil

	case Step3:
		if answered := c.Catalog.Answered(st.Category, form); answered < c.Catalog.MinAnswered {
			return Outcome{}, &ValidationError{
				Field:   "category",
				Message: fmt.Sprintf("Please answer at least %d questions (%d answered)", c.Catalog.MinAnswered, answered),
			}
		}
		if st.Category < c.lastCategory() {
			return Outcome{State: State{Step: Step3, Category: st.Category + 1}}, nil
		}
		return Outcome{
			State:     State{Step: Step4},
			Candidate: &Candidate{model.Step3, model.ActionFinish},
		}, nil
	}
	return Outcome{}, ErrInvalidTransition
}

// Skip jumps to the summary, keeping whatever the current step holds.
// Inputs are not validated; empty ones are dropped.
func (c Controller) Skip(st State, form model.FormData, in Input) (Outcome, error) {
	var partial model.FormData
	var step model.StepType
	switch st.Step {
	case Step1:
		step = model.Step1
		if code := strings.ToUpper(strings.TrimSpace(in.PostalCode)); code != "" {
			partial.PostalCode = &code
		}
	case Step2:
		step = model.Step2
		if name := strings.TrimSpace(in.Name); name != "" {
			partial.Name = &name
		}
		if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
			partial.Email = &email
		}
	case Step3:
		step = model.Step3
	default:
		return Outcome{}, ErrInvalidTransition
	}
	return Outcome{
		State:     State{Step: Step4},
		Partial:   partial,
		Candidate: &Candidate{step, model.ActionSkip},
	}, nil
}

// Back moves to the previous step or category without submitting anything.
func (c Controller) Back(st State) (State, error) {
	switch st.Step {
	case Step2:
		return State{Step: Step1}, nil
	case Step3:
		if st.Category > 0 {
			return State{Step: Step3, Category: st.Category - 1}, nil
		}
		return State{Step: Step2}, nil
	case Step4:
		return State{Step: Step3, Category: c.lastCategory()}, nil
	}
	return st, ErrInvalidTransition
}

// Collected masks form down to the fields gathered up to step,
// which is what a submission for that step carries.
func Collected(step model.StepType, form model.FormData) model.FormData {
	switch step {
	case model.Step1:
		return model.FormData{PostalCode: form.PostalCode}
	case model.Step2:
		return model.FormData{PostalCode: form.PostalCode, Name: form.Name, Email: form.Email}
	}
	return form
}

package funnel

import (
	"testing"

	"github.com/mbolis/pathfinders/model"
	"github.com/mbolis/pathfinders/questions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testController() Controller {
	return Controller{Catalog: questions.Default()}
}

func TestNextStep1(t *testing.T) {
	c := testController()

	_, err := c.Next(State{Step: Step1}, model.FormData{}, Input{PostalCode: "12345"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	out, err := c.Next(State{Step: Step1}, model.FormData{}, Input{PostalCode: "m5v"})
	require.NoError(t, err)
	assert.Equal(t, State{Step: Step2}, out.State)
	assert.Equal(t, "M5V", model.Value(out.Partial.PostalCode))
	assert.Equal(t, &Candidate{model.Step1, model.ActionContinue}, out.Candidate)
}

func TestNextStep2EntersStep3WithDefaults(t *testing.T) {
	c := testController()

	out, err := c.Next(State{Step: Step2}, model.FormData{}, Input{Name: " Jane Doe ", Email: "JANE@example.com"})
	require.NoError(t, err)
	assert.Equal(t, State{Step: Step3, Category: 0}, out.State)
	assert.Equal(t, "Jane Doe", model.Value(out.Partial.Name))
	assert.Equal(t, "jane@example.com", model.Value(out.Partial.Email))
	assert.Equal(t, &Candidate{model.Step2, model.ActionContinue}, out.Candidate)
	assert.Equal(t, "1-10", model.Value(out.Defaults.CompanySize))
	assert.Equal(t, "0-2", model.Value(out.Defaults.Experience))
}

func TestNextStep3Gate(t *testing.T) {
	c := testController()

	two := model.FormData{
		Industry:       model.String("Tech"),
		EducationLevel: model.String("Graduate"),
		AdditionalInfo: model.String("free text never counts"),
	}
	_, err := c.Next(State{Step: Step3}, two, Input{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)

	three := two.Merge(model.FormData{CompanySize: model.String("1-10")})
	out, err := c.Next(State{Step: Step3}, three, Input{})
	require.NoError(t, err)
	assert.Equal(t, State{Step: Step3, Category: 1}, out.State)
	assert.Nil(t, out.Candidate)
}

func TestNextLastCategoryFinishes(t *testing.T) {
	c := testController()
	last := len(c.Catalog.Categories) - 1

	form := model.FormData{
		WorkEnvironment:          []string{"Hybrid"},
		CollaborationPreferences: []string{},
		Communication:            []string{"Direct"},
	}
	_, err := c.Next(State{Step: Step3, Category: last}, form, Input{})
	require.Error(t, err, "an empty set does not count")

	form.DayOfWeek = []string{"Monday"}
	out, err := c.Next(State{Step: Step3, Category: last}, form, Input{})
	require.NoError(t, err)
	assert.Equal(t, State{Step: Step4}, out.State)
	assert.Equal(t, &Candidate{model.Step3, model.ActionFinish}, out.Candidate)

	_, err = c.Next(State{Step: Step4}, form, Input{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSkip(t *testing.T) {
	c := testController()

	tests := []struct {
		name  string
		state State
		in    Input
		step  model.StepType
		check func(t *testing.T, partial model.FormData)
	}{
		{"step1 keeps raw postal code", State{Step: Step1}, Input{PostalCode: " x9 "}, model.Step1, func(t *testing.T, p model.FormData) {
			assert.Equal(t, "X9", model.Value(p.PostalCode))
		}},
		{"step1 empty", State{Step: Step1}, Input{}, model.Step1, func(t *testing.T, p model.FormData) {
			assert.True(t, p.Empty())
		}},
		{"step2", State{Step: Step2}, Input{Name: " Jane ", Email: " NOT-AN-EMAIL "}, model.Step2, func(t *testing.T, p model.FormData) {
			assert.Equal(t, "Jane", model.Value(p.Name))
			assert.Equal(t, "not-an-email", model.Value(p.Email))
		}},
		{"step3", State{Step: Step3, Category: 1}, Input{}, model.Step3, func(t *testing.T, p model.FormData) {
			assert.True(t, p.Empty())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Skip(tt.state, model.FormData{}, tt.in)
			require.NoError(t, err)
			assert.Equal(t, State{Step: Step4}, out.State)
			assert.Equal(t, &Candidate{tt.step, model.ActionSkip}, out.Candidate)
			tt.check(t, out.Partial)
		})
	}

	_, err := c.Skip(State{Step: Step4}, model.FormData{}, Input{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBack(t *testing.T) {
	c := testController()
	last := len(c.Catalog.Categories) - 1

	tests := []struct {
		from, to State
	}{
		{State{Step: Step2}, State{Step: Step1}},
		{State{Step: Step3, Category: 0}, State{Step: Step2}},
		{State{Step: Step3, Category: 2}, State{Step: Step3, Category: 1}},
		{State{Step: Step4}, State{Step: Step3, Category: last}},
	}
	for _, tt := range tests {
		got, err := c.Back(tt.from)
		require.NoError(t, err)
		assert.Equal(t, tt.to, got)
	}

	_, err := c.Back(State{Step: Step1})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCollected(t *testing.T) {
	form := model.FormData{
		PostalCode: model.String("M5V"),
		Name:       model.String("Jane"),
		Industry:   model.String("Tech"),
	}
	assert.Equal(t, model.FormData{PostalCode: form.PostalCode}, Collected(model.Step1, form))
	assert.Nil(t, Collected(model.Step2, form).Industry)
	assert.Equal(t, form, Collected(model.Step3, form))
}

func TestStepText(t *testing.T) {
	text, err := Step3.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Step3", string(text))
}

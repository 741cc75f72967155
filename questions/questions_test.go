package questions

import (
	"testing"

	"github.com/mbolis/pathfinders/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	require.Len(t, c.Categories, 3)
	assert.Equal(t, 3, c.MinAnswered)

	q, cat, ok := c.Question("interests")
	require.True(t, ok)
	assert.Equal(t, 1, cat)
	assert.Equal(t, MultiChoice, q.Kind)
	assert.Equal(t, 3, q.MaxSelections)

	q, cat, ok = c.Question("additionalInfo")
	require.True(t, ok)
	assert.Equal(t, 2, cat)
	assert.Equal(t, FreeText, q.Kind)

	_, _, ok = c.Question("postalCode")
	assert.False(t, ok)
}

func TestParseReportsEveryProblem(t *testing.T) {
	_, err := Parse([]byte(`
min_answered: 0
categories:
  - title: ""
    questions:
      - id: interests
        kind: single-choice
        options: [a]
      - id: industry
        kind: slider
      - id: companySize
        kind: ordinal
        options: [small]
        default: huge
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "min_answered")
	assert.Contains(t, msg, "missing title")
	assert.Contains(t, msg, `"interests": not a single-valued field`)
	assert.Contains(t, msg, `unknown kind "slider"`)
	assert.Contains(t, msg, `default "huge"`)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("min_answered: 3\nbogus: true\ncategories: []\n"))
	assert.Error(t, err)
}

func TestAnsweredCounting(t *testing.T) {
	c := Default()
	var form model.FormData

	assert.Equal(t, 0, c.Answered(1, form))

	form = form.Merge(model.FormData{PrimaryGoal: []string{"Find Mentor"}, Interests: []string{}})
	assert.Equal(t, 1, c.Answered(1, form), "empty sets do not count")

	form = form.Merge(model.FormData{ConnectionTypes: []string{"Mentor"}})
	assert.Equal(t, 2, c.Answered(1, form))
	assert.False(t, c.CanAdvance(1, form))

	form = form.Merge(model.FormData{Challenges: []string{"Building a network"}})
	assert.Equal(t, 3, c.Answered(1, form))
	assert.True(t, c.CanAdvance(1, form))
}

func TestFreeTextNeverCounts(t *testing.T) {
	c := Default()
	form := model.FormData{
		AdditionalInfo: model.String("hello"),
		Communication:  []string{"Direct"},
		DayOfWeek:      []string{"Monday"},
	}
	assert.Equal(t, 2, c.Answered(2, form))
	assert.False(t, c.CanAdvance(2, form))
}

func TestDefaultsOnlyFillMissingOrdinals(t *testing.T) {
	c := Default()

	partial := c.Defaults(model.FormData{CompanySize: model.String("500+")})
	assert.Nil(t, partial.CompanySize)
	assert.Equal(t, "0-2", model.Value(partial.Experience))

	form := model.FormData{}.Merge(c.Defaults(model.FormData{}))
	assert.Equal(t, 2, c.Answered(0, form))
}

func TestDecodeAnswers(t *testing.T) {
	c := Default()
	interests, _, _ := c.Question("interests")
	industry, _, _ := c.Question("industry")
	size, _, _ := c.Question("companySize")
	info, _, _ := c.Question("additionalInfo")

	tests := []struct {
		name    string
		q       Question
		raw     string
		want    Answer
		wantErr string
	}{
		{"selection", interests, `["Design","Research"]`, Selection{"Design", "Research"}, ""},
		{"empty selection", interests, `[]`, Selection{}, ""},
		{"over cap", interests, `["Design","Research","Finance","Education"]`, nil, "at most 3"},
		{"unknown option", interests, `["Knitting"]`, nil, "unknown option"},
		{"duplicate option", interests, `["Design","Design"]`, nil, "selected twice"},
		{"string for selection", interests, `"Design"`, nil, "list of options"},
		{"choice", industry, `"Tech"`, Choice("Tech"), ""},
		{"cleared choice", industry, `""`, Choice(""), ""},
		{"bad choice", industry, `"Farming"`, nil, "unknown option"},
		{"ordinal", size, `"50-200"`, Choice("50-200"), ""},
		{"ordinal required", size, `""`, nil, "required"},
		{"text", info, `"anything goes"`, Text("anything goes"), ""},
		{"list for text", info, `["x"]`, nil, "expected text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.q.Decode([]byte(tt.raw))
			if tt.wantErr != "" {
				require.Error(t, err)
				var answerErr *AnswerError
				assert.ErrorAs(t, err, &answerErr)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyBuildsPartial(t *testing.T) {
	c := Default()
	goals, _, _ := c.Question("primaryGoal")

	partial, err := goals.Apply(Selection{"Find Mentor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Find Mentor"}, partial.PrimaryGoal)
	assert.Nil(t, partial.Interests)

	_, err = goals.Apply(Choice("Find Mentor"))
	assert.Error(t, err)
}

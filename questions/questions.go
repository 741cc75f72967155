package questions

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/pathfinders/model"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	SingleChoice Kind = "single-choice"
	MultiChoice  Kind = "multi-choice"
	Ordinal      Kind = "ordinal"
	FreeText     Kind = "free-text"
)

type Question struct {
	ID            string   `yaml:"id" json:"id"`
	Kind          Kind     `yaml:"kind" json:"kind"`
	Label         string   `yaml:"label" json:"label"`
	Options       []string `yaml:"options" json:"options,omitempty"`
	MaxSelections int      `yaml:"max_selections" json:"maxSelections,omitempty"`
	Default       string   `yaml:"default" json:"default,omitempty"`
	Placeholder   string   `yaml:"placeholder" json:"placeholder,omitempty"`
}

type Category struct {
	Title     string     `yaml:"title" json:"title"`
	Questions []Question `yaml:"questions" json:"questions"`
}

type Catalog struct {
	MinAnswered int        `yaml:"min_answered" json:"minAnswered"`
	Categories  []Category `yaml:"categories" json:"categories"`
}

//go:embed catalog.yaml
var defaultCatalog []byte

// Default returns the built-in questionnaire.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic("questions: invalid built-in catalog: " + err.Error())
	}
	return c
}

// Load reads a catalog from a YAML file; an empty path yields the default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	var result *multierror.Error
	if c.MinAnswered <= 0 {
		result = multierror.Append(result, fmt.Errorf("min_answered must be positive"))
	}
	if len(c.Categories) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one category is required"))
	}

	seen := map[string]bool{}
	for i, cat := range c.Categories {
		if cat.Title == "" {
			result = multierror.Append(result, fmt.Errorf("category %d: missing title", i+1))
		}
		for _, q := range cat.Questions {
			if seen[q.ID] {
				result = multierror.Append(result, fmt.Errorf("question %q: duplicate id", q.ID))
			}
			seen[q.ID] = true
			if err := q.validate(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

func (q Question) validate() error {
	switch q.Kind {
	case MultiChoice:
		if !model.IsSetField(q.ID) {
			return fmt.Errorf("question %q: not a multi-valued field", q.ID)
		}
	case SingleChoice, Ordinal, FreeText:
		if !model.IsScalarField(q.ID) {
			return fmt.Errorf("question %q: not a single-valued field", q.ID)
		}
	default:
		return fmt.Errorf("question %q: unknown kind %q", q.ID, q.Kind)
	}
	if q.Kind != FreeText && len(q.Options) == 0 {
		return fmt.Errorf("question %q: options are required", q.ID)
	}
	if q.Kind == Ordinal && q.Default != "" && !slices.Contains(q.Options, q.Default) {
		return fmt.Errorf("question %q: default %q is not an option", q.ID, q.Default)
	}
	if q.MaxSelections < 0 {
		return fmt.Errorf("question %q: negative max_selections", q.ID)
	}
	return nil
}

// Question looks a question up by id.
func (c *Catalog) Question(id string) (Question, int, bool) {
	for i, cat := range c.Categories {
		for _, q := range cat.Questions {
			if q.ID == id {
				return q, i, true
			}
		}
	}
	return Question{}, -1, false
}

// Answered counts the questions of category that count towards the
// minimum: a non-empty set, or a non-empty value. Free text never counts.
func (c *Catalog) Answered(category int, form model.FormData) int {
	if category < 0 || category >= len(c.Categories) {
		return 0
	}
	n := 0
	for _, q := range c.Categories[category].Questions {
		if q.answered(form) {
			n++
		}
	}
	return n
}

// CanAdvance reports whether enough questions of category are answered.
func (c *Catalog) CanAdvance(category int, form model.FormData) bool {
	return c.Answered(category, form) >= c.MinAnswered
}

// Defaults returns a partial record holding the default of every ordinal
// question that form has not answered yet.
func (c *Catalog) Defaults(form model.FormData) model.FormData {
	var partial model.FormData
	for _, cat := range c.Categories {
		for _, q := range cat.Questions {
			if q.Kind != Ordinal || q.Default == "" {
				continue
			}
			if v, ok := form.Scalar(q.ID); ok && v != "" {
				continue
			}
			partial.SetScalar(q.ID, q.Default)
		}
	}
	return partial
}

func (q Question) answered(form model.FormData) bool {
	switch q.Kind {
	case MultiChoice:
		v, _ := form.Set(q.ID)
		return len(v) > 0
	case SingleChoice, Ordinal:
		v, _ := form.Scalar(q.ID)
		return v != ""
	}
	return false
}

// Answer is the typed value of one question: Choice, Selection or Text.
type Answer interface {
	apply(id string, form *model.FormData) error
}

// Choice answers single-choice and ordinal questions. Empty clears the selection.
type Choice string

// Selection answers multi-choice questions.
type Selection []string

// Text answers free-text questions.
type Text string

func (a Choice) apply(id string, form *model.FormData) error {
	return form.SetScalar(id, string(a))
}

func (a Selection) apply(id string, form *model.FormData) error {
	return form.SetSet(id, a)
}

func (a Text) apply(id string, form *model.FormData) error {
	return form.SetScalar(id, string(a))
}

// AnswerError reports an answer that does not fit its question.
type AnswerError struct {
	QuestionID string
	Message    string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("%s: %s", e.QuestionID, e.Message)
}

// Decode turns a raw JSON value into the answer type of q and checks it.
func (q Question) Decode(raw []byte) (Answer, error) {
	var a Answer
	switch q.Kind {
	case MultiChoice:
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &AnswerError{q.ID, "expected a list of options"}
		}
		a = Selection(v)
	case SingleChoice, Ordinal:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &AnswerError{q.ID, "expected a single option"}
		}
		a = Choice(strings.TrimSpace(v))
	case FreeText:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &AnswerError{q.ID, "expected text"}
		}
		a = Text(v)
	default:
		return nil, &AnswerError{q.ID, "unsupported question"}
	}
	if err := q.Check(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Check validates a against the options and selection cap of q.
func (q Question) Check(a Answer) error {
	switch v := a.(type) {
	case Selection:
		if q.Kind != MultiChoice {
			return &AnswerError{q.ID, "expected a single option"}
		}
		if q.MaxSelections > 0 && len(v) > q.MaxSelections {
			return &AnswerError{q.ID, fmt.Sprintf("select at most %d options", q.MaxSelections)}
		}
		for i, opt := range v {
			if !slices.Contains(q.Options, opt) {
				return &AnswerError{q.ID, fmt.Sprintf("unknown option %q", opt)}
			}
			if slices.Contains(v[:i], opt) {
				return &AnswerError{q.ID, fmt.Sprintf("option %q selected twice", opt)}
			}
		}
	case Choice:
		if q.Kind != SingleChoice && q.Kind != Ordinal {
			return &AnswerError{q.ID, "unexpected single option"}
		}
		if q.Kind == Ordinal && v == "" {
			return &AnswerError{q.ID, "a value is required"}
		}
		if v != "" && !slices.Contains(q.Options, string(v)) {
			return &AnswerError{q.ID, fmt.Sprintf("unknown option %q", string(v))}
		}
	case Text:
		if q.Kind != FreeText {
			return &AnswerError{q.ID, "unexpected text"}
		}
	default:
		return &AnswerError{q.ID, "unsupported answer"}
	}
	return nil
}

// Apply writes a into a partial record for q.
func (q Question) Apply(a Answer) (model.FormData, error) {
	var partial model.FormData
	if err := q.Check(a); err != nil {
		return partial, err
	}
	err := a.apply(q.ID, &partial)
	return partial, err
}

package funnel

import (
	"strings"

	"github.com/mbolis/pathfinders/model"
)

type SummaryLine struct {
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

type SummarySection struct {
	Title string        `json:"title"`
	Lines []SummaryLine `json:"lines"`
}

// Summary is the read-only recap shown on the final step.
type Summary struct {
	SessionID string           `json:"sessionId"`
	Sections  []SummarySection `json:"sections"`
}

type summaryField struct {
	label, field string
}

var summaryLayout = []struct {
	title  string
	fields []summaryField
}{
	{"Location", []summaryField{{"", "postalCode"}}},
	{"Contact Information", []summaryField{{"", "name"}, {"", "email"}}},
	{"Professional Background", []summaryField{
		{"Industry", "industry"},
		{"Education", "educationLevel"},
		{"Job Level", "jobFunctionLevel"},
		{"Company Size", "companySize"},
		{"Experience", "experience"},
		{"Communication Style", "communication"},
	}},
	{"Networking Goals", []summaryField{
		{"Primary Goal", "primaryGoal"},
		{"Connection Types", "connectionTypes"},
	}},
	{"Preferences", []summaryField{
		{"Work Environment", "workEnvironment"},
		{"Collaboration Style", "collaborationPreferences"},
		{"Best Time", "networkingWindow"},
		{"Best Days", "dayOfWeek"},
	}},
	{"Professional Interests", []summaryField{{"Main Interests", "interests"}}},
	{"Professional Challenges", []summaryField{{"Current Challenges", "challenges"}}},
	{"Additional Information", []summaryField{{"", "additionalInfo"}}},
}

// Summarize lays form out by section, leaving out empty answers and empty sections.
func Summarize(session model.Session, form model.FormData) Summary {
	summary := Summary{SessionID: session.ID, Sections: []SummarySection{}}
	for _, s := range summaryLayout {
		section := SummarySection{Title: s.title}
		for _, f := range s.fields {
			var value string
			if v, ok := form.Scalar(f.field); ok {
				value = strings.TrimSpace(v)
			} else if v, ok := form.Set(f.field); ok {
				value = strings.Join(v, ", ")
			}
			if value != "" {
				section.Lines = append(section.Lines, SummaryLine{Label: f.label, Value: value})
			}
		}
		if len(section.Lines) > 0 {
			summary.Sections = append(summary.Sections, section)
		}
	}
	return summary
}

package model

import (
	"bytes"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// StringList accepts either a JSON array of strings or a single string.
// Older clients sent some multi-valued answers as plain strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s == "" {
			*l = StringList{}
		} else {
			*l = StringList{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// Submission is the flattened snapshot sent on every step transition.
// The server fields are stamped on receipt; the record is never changed afterwards.
type Submission struct {
	Timestamp                string     `json:"timestamp"`
	SessionID                string     `json:"sessionId"`
	StepType                 StepType   `json:"stepType"`
	Action                   Action     `json:"action"`
	DeviceInfo               DeviceInfo `json:"deviceInfo"`
	PostalCode               string     `json:"postalCode"`
	Name                     string     `json:"name"`
	Email                    string     `json:"email"`
	Industry                 string     `json:"industry"`
	EducationLevel           string     `json:"educationLevel"`
	JobFunctionLevel         string     `json:"jobFunctionLevel"`
	CompanySize              string     `json:"companySize"`
	PrimaryGoal              StringList `json:"primaryGoal"`
	ConnectionTypes          StringList `json:"connectionTypes"`
	WorkEnvironment          StringList `json:"workEnvironment"`
	CollaborationPreferences StringList `json:"collaborationPreferences"`
	NetworkingWindow         StringList `json:"networkingWindow"`
	DayOfWeek                StringList `json:"dayOfWeek"`
	Experience               string     `json:"experience"`
	Communication            StringList `json:"communication"`
	Interests                StringList `json:"interests"`
	Challenges               StringList `json:"challenges"`
	AdditionalInfo           string     `json:"additionalInfo"`

	ServerTimestamp string `json:"serverTimestamp,omitempty"`
	IPAddress       string `json:"ipAddress,omitempty"`
	UserAgent       string `json:"userAgent,omitempty"`
}

// NewSubmission snapshots form for the given step transition.
// Absent sets become empty lists so the sink always sees every column.
func NewSubmission(session Session, form FormData, step StepType, action Action, now time.Time) Submission {
	list := func(v []string) StringList {
		if v == nil {
			return StringList{}
		}
		return append(StringList{}, v...)
	}
	return Submission{
		Timestamp:                now.UTC().Format(time.RFC3339Nano),
		SessionID:                session.ID,
		StepType:                 step,
		Action:                   action,
		DeviceInfo:               session.DeviceInfo,
		PostalCode:               Value(form.PostalCode),
		Name:                     Value(form.Name),
		Email:                    Value(form.Email),
		Industry:                 Value(form.Industry),
		EducationLevel:           Value(form.EducationLevel),
		JobFunctionLevel:         Value(form.JobFunctionLevel),
		CompanySize:              Value(form.CompanySize),
		PrimaryGoal:              list(form.PrimaryGoal),
		ConnectionTypes:          list(form.ConnectionTypes),
		WorkEnvironment:          list(form.WorkEnvironment),
		CollaborationPreferences: list(form.CollaborationPreferences),
		NetworkingWindow:         list(form.NetworkingWindow),
		DayOfWeek:                list(form.DayOfWeek),
		Experience:               Value(form.Experience),
		Communication:            list(form.Communication),
		Interests:                list(form.Interests),
		Challenges:               list(form.Challenges),
		AdditionalInfo:           Value(form.AdditionalInfo),
	}
}

// ReceivedAt parses the server timestamp, falling back to the client one.
func (s Submission) ReceivedAt() (time.Time, bool) {
	for _, ts := range []string{s.ServerTimestamp, s.Timestamp} {
		if ts == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

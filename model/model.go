package model

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

// StepType identifies the funnel stage that produced a Submission.
type StepType string

const (
	Step1 StepType = "Step1"
	Step2 StepType = "Step2"
	Step3 StepType = "Step3"
)

func (s StepType) Valid() bool {
	switch s {
	case Step1, Step2, Step3:
		return true
	}
	return false
}

// Action identifies the user action that produced a Submission.
type Action string

const (
	ActionContinue Action = "Continue"
	ActionSkip     Action = "Skip"
	ActionFinish   Action = "Finish"
)

type DeviceInfo struct {
	UserAgent        string `json:"userAgent"`
	Platform         string `json:"platform"`
	Language         string `json:"language"`
	ScreenResolution string `json:"screenResolution"`
	Timezone         string `json:"timezone"`
	Timestamp        string `json:"timestamp"`
}

// Session is created once per client and never changes afterwards.
type Session struct {
	ID         string     `json:"sessionId"`
	DeviceInfo DeviceInfo `json:"deviceInfo"`
}

func NewSession(device DeviceInfo) (Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Session{}, err
	}
	return Session{ID: id.String(), DeviceInfo: device}, nil
}

// DeviceInfoFromRequest fills in whatever the client did not report
// from the request headers, falling back to fixed placeholders.
func DeviceInfoFromRequest(r *http.Request, reported DeviceInfo, now time.Time) DeviceInfo {
	d := reported
	if d.UserAgent == "" {
		d.UserAgent = r.UserAgent()
	}
	if d.UserAgent == "" {
		d.UserAgent = "Unknown"
	}
	if d.Language == "" {
		d.Language = primaryLanguage(r.Header.Get("Accept-Language"))
	}
	if d.Platform == "" {
		d.Platform = "Unknown"
	}
	if d.ScreenResolution == "" {
		d.ScreenResolution = "Unknown"
	}
	if d.Timezone == "" {
		d.Timezone = "UTC"
	}
	d.Timestamp = now.UTC().Format(time.RFC3339Nano)
	return d
}

func primaryLanguage(header string) string {
	lang, _, _ := strings.Cut(header, ",")
	lang, _, _ = strings.Cut(lang, ";")
	lang = strings.TrimSpace(lang)
	if lang == "" || lang == "*" {
		return "en"
	}
	return lang
}

// Origin carries the network identity of the request that caused a submission.
type Origin struct {
	IPAddress string
	UserAgent string
}

func OriginFromRequest(r *http.Request) Origin {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-Ip")
	}
	if ip == "" {
		ip = "unknown"
	}
	ua := r.UserAgent()
	if ua == "" {
		ua = "unknown"
	}
	return Origin{IPAddress: ip, UserAgent: ua}
}

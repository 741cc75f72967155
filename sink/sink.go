// Package sink posts submissions to the spreadsheet-writing script.
package sink

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ajg/form"
	"github.com/goccy/go-json"
	"github.com/mbolis/pathfinders/model"
	"github.com/pkg/errors"
)

// DefaultURL is used when no script URL is configured.
const DefaultURL = "https://script.google.com/macros/s/AKfycbxP8H-qh4r4uEN5Ea2xBXa__YjXFlJ30h7F4_kebDna3HEMlbz_WqG8H8pWBRhp2rSx/exec"

const listSeparator = "; "

var (
	ErrStatus            = errors.New("sink: unexpected status")
	ErrMalformedResponse = errors.New("sink: malformed response")
	ErrRejected          = errors.New("sink: submission rejected")
)

// Response is what the script answers; only Success is interpreted.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	SheetName string `json:"sheetName,omitempty"`
	StepType  string `json:"stepType,omitempty"`
}

type Client struct {
	URL  string
	HTTP *http.Client
}

func New(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		URL:  url,
		HTTP: &http.Client{Timeout: timeout},
	}
}

// UsingFallback reports whether the client targets the built-in URL.
func (c *Client) UsingFallback() bool {
	return c.URL == DefaultURL
}

// Send posts one submission as a form-encoded row.
func (c *Client) Send(ctx context.Context, sub model.Submission) (Response, error) {
	values, err := Encode(sub)
	if err != nil {
		return Response{}, err
	}
	return c.post(ctx, values)
}

// Ping posts a test row, as the admin connectivity check does.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.post(ctx, url.Values{
		"test":      {"connection"},
		"timestamp": {time.Now().UTC().Format(time.RFC3339)},
	})
	return err
}

func (c *Client) post(ctx context.Context, values url.Values) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(values.Encode()))
	if err != nil {
		return Response{}, errors.Wrap(err, "sink.new_request")
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "sink.post")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, errors.Wrap(err, "sink.read_body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, errors.Wrapf(ErrStatus, "%d", resp.StatusCode)
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return Response{}, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	if !result.Success {
		return result, errors.Wrap(ErrRejected, result.Error)
	}
	return result, nil
}

// row is the tabular shape the script expects: every list joined, device info as JSON.
type row struct {
	StepType                 string `form:"stepType"`
	Action                   string `form:"action"`
	Timestamp                string `form:"timestamp"`
	SessionID                string `form:"sessionId"`
	PostalCode               string `form:"postalCode"`
	Name                     string `form:"name"`
	Email                    string `form:"email"`
	Industry                 string `form:"industry"`
	EducationLevel           string `form:"educationLevel"`
	JobFunctionLevel         string `form:"jobFunctionLevel"`
	CompanySize              string `form:"companySize"`
	PrimaryGoal              string `form:"primaryGoal"`
	ConnectionTypes          string `form:"connectionTypes"`
	WorkEnvironment          string `form:"workEnvironment"`
	CollaborationPreferences string `form:"collaborationPreferences"`
	NetworkingWindow         string `form:"networkingWindow"`
	DayOfWeek                string `form:"dayOfWeek"`
	Experience               string `form:"experience"`
	Communication            string `form:"communication"`
	Interests                string `form:"interests"`
	Challenges               string `form:"challenges"`
	AdditionalInfo           string `form:"additionalInfo"`
	DeviceInfo               string `form:"deviceInfo"`
	ServerTimestamp          string `form:"serverTimestamp"`
	IPAddress                string `form:"ipAddress"`
	UserAgent                string `form:"userAgent"`
}

// Encode flattens sub into form values.
func Encode(sub model.Submission) (url.Values, error) {
	device, err := json.Marshal(sub.DeviceInfo)
	if err != nil {
		return nil, errors.Wrap(err, "sink.encode_device_info")
	}
	join := func(l model.StringList) string {
		return strings.Join(l, listSeparator)
	}

	values, err := form.EncodeToValues(row{
		StepType:                 string(sub.StepType),
		Action:                   string(sub.Action),
		Timestamp:                sub.Timestamp,
		SessionID:                sub.SessionID,
		PostalCode:               sub.PostalCode,
		Name:                     sub.Name,
		Email:                    sub.Email,
		Industry:                 sub.Industry,
		EducationLevel:           sub.EducationLevel,
		JobFunctionLevel:         sub.JobFunctionLevel,
		CompanySize:              sub.CompanySize,
		PrimaryGoal:              join(sub.PrimaryGoal),
		ConnectionTypes:          join(sub.ConnectionTypes),
		WorkEnvironment:          join(sub.WorkEnvironment),
		CollaborationPreferences: join(sub.CollaborationPreferences),
		NetworkingWindow:         join(sub.NetworkingWindow),
		DayOfWeek:                join(sub.DayOfWeek),
		Experience:               sub.Experience,
		Communication:            join(sub.Communication),
		Interests:                join(sub.Interests),
		Challenges:               join(sub.Challenges),
		AdditionalInfo:           sub.AdditionalInfo,
		DeviceInfo:               string(device),
		ServerTimestamp:          sub.ServerTimestamp,
		IPAddress:                sub.IPAddress,
		UserAgent:                sub.UserAgent,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sink.encode")
	}
	return values, nil
}

package funnel

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/mbolis/pathfinders/httpx"
	"github.com/mbolis/pathfinders/model"
	"github.com/pkg/errors"
)

// SubmissionPath is where the step submission endpoint is mounted.
const SubmissionPath = "/api/data-submission"

var (
	ErrSubmissionStatus   = errors.New("funnel: submission endpoint returned an error status")
	ErrSubmissionResponse = errors.New("funnel: malformed submission response")
	ErrSubmissionFailed   = errors.New("funnel: submission not processed")
)

type submissionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandlerSender calls the step submission handler in-process.
type HandlerSender struct {
	Handler http.Handler
}

func (s HandlerSender) Send(ctx context.Context, sub model.Submission, origin model.Origin) error {
	req, err := newSubmissionRequest(ctx, SubmissionPath, sub, origin)
	if err != nil {
		return err
	}

	resp := httpx.NewResponseBuffer()
	s.Handler.ServeHTTP(resp, req)
	return checkSubmissionResponse(resp.Status(), resp.Body())
}

// HTTPSender posts to a step submission endpoint on another host.
type HTTPSender struct {
	URL    string
	Client *http.Client
}

func (s HTTPSender) Send(ctx context.Context, sub model.Submission, origin model.Origin) error {
	req, err := newSubmissionRequest(ctx, s.URL, sub, origin)
	if err != nil {
		return err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "funnel.sender.post")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "funnel.sender.read_body")
	}
	return checkSubmissionResponse(resp.StatusCode, body)
}

func newSubmissionRequest(ctx context.Context, url string, sub model.Submission, origin model.Origin) (*http.Request, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, errors.Wrap(err, "funnel.sender.encode")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "funnel.sender.new_request")
	}
	req.Header.Set("content-type", "application/json")
	if origin.IPAddress != "" {
		req.Header.Set("X-Forwarded-For", origin.IPAddress)
	}
	if origin.UserAgent != "" {
		req.Header.Set("User-Agent", origin.UserAgent)
	}
	return req, nil
}

func checkSubmissionResponse(status int, body []byte) error {
	if status < 200 || status > 299 {
		return errors.Wrapf(ErrSubmissionStatus, "%d", status)
	}
	var result submissionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.Wrap(ErrSubmissionResponse, err.Error())
	}
	if !result.Success {
		return errors.Wrap(ErrSubmissionFailed, result.Error)
	}
	return nil
}

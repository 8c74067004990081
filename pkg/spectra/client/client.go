package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/spectra/pkg/logger"
	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

const (
	DefaultPollInterval = 1500 * time.Millisecond
	DefaultPollTimeout  = 2 * time.Minute
	DefaultHTTPTimeout  = 30 * time.Second

	uploadField    = "file"
	uploadFilename = "mic.wav"
)

var errPing = errors.New("backend ping failed")

// Config configures the recognition service client.
type Config struct {
	BaseURL      string
	PollInterval time.Duration // default 1.5s
	PollTimeout  time.Duration // overall await bound, default 2m; negative disables
	MaxPolls     int           // 0 means unbounded
	HTTPTimeout  time.Duration // per request, default 30s
	HTTPClient   *http.Client
	Logger       model.Logger
}

// Client submits recordings and polls match tasks.
type Client struct {
	cfg  Config
	http *http.Client
	log  model.Logger
}

func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.GetLogger().WithPrefix("client")
	}
	return &Client{cfg: cfg, http: hc, log: log}
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Submit uploads rec as a multipart form and returns the task id.
func (c *Client) Submit(ctx context.Context, rec model.EncodedRecording) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(uploadField, uploadFilename)
	if err != nil {
		return "", fmt.Errorf("%w: create form file: %v", model.ErrSubmission, err)
	}
	if _, err := part.Write(rec.Data); err != nil {
		return "", fmt.Errorf("%w: write audio: %v", model.ErrSubmission, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: close multipart: %v", model.ErrSubmission, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/match_file", &body)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", model.ErrSubmission, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.log.Debugf("Uploading %s recording to %s", humanize.Bytes(uint64(rec.Len())), req.URL)
	respBody, err := c.do(req, model.ErrSubmission)
	if err != nil {
		return "", err
	}

	var parsed submitResponse
	if err := decode(respBody, &parsed); err != nil {
		return "", err
	}
	c.log.Infof("Submitted match task %s", parsed.TaskID)
	return parsed.TaskID, nil
}

// AwaitResult polls the task at a fixed interval until it is no longer
// pending. The first status request goes out one interval after the call.
// Any polling failure ends the await immediately.
func (c *Client) AwaitResult(ctx context.Context, taskID string) (model.MatchTask, error) {
	task := model.MatchTask{ID: taskID, Status: model.StatusPending}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if c.cfg.PollTimeout > 0 {
		timer := time.NewTimer(c.cfg.PollTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-deadline:
			return task, fmt.Errorf("%w: task %s still pending after %v", model.ErrPollTimeout, taskID, c.cfg.PollTimeout)
		case <-ticker.C:
		}

		task.Polls++
		st, err := c.status(ctx, taskID)
		if err != nil {
			return task, err
		}

		status, _ := parseStatus(st.Status)
		if status.IsTerminal() {
			task.Status = status
			task.Message = st.Error
			if status == model.StatusSuccess {
				task.Candidates = st.Result
			}
			c.log.Infof("Task %s finished with status %s after %d poll(s)", taskID, status, task.Polls)
			return task, nil
		}

		if c.cfg.MaxPolls > 0 && task.Polls >= c.cfg.MaxPolls {
			return task, fmt.Errorf("%w: task %s still pending after %d polls", model.ErrPollTimeout, taskID, task.Polls)
		}
		c.log.Debugf("Task %s pending (poll %d)", taskID, task.Polls)
	}
}

func (c *Client) status(ctx context.Context, taskID string) (*statusResponse, error) {
	endpoint := c.cfg.BaseURL + "/task_status/" + url.PathEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", model.ErrPolling, err)
	}

	body, err := c.do(req, model.ErrPolling)
	if err != nil {
		return nil, err
	}

	var st statusResponse
	if err := decode(body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Ping checks that the backend answers on /ping.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	_, err = c.do(req, errPing)
	return err
}

// do performs req and returns the body of a 2xx response. Failures are
// tagged with kind.
func (c *Client) do(req *http.Request, kind error) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", kind, ctxErr)
		}
		return nil, fmt.Errorf("%w: http request: %v", kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", kind, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.HTTPError{
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Body:       truncate(bytes.TrimSpace(body), 200),
		}
	}
	return body, nil
}

package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Options are the subtitle settings of a caption job, named the way the
// provider expects them.
type Options struct {
	TopAlign string `json:"top_align"`
	FontSize int    `json:"font_size"`
	Font     string `json:"txt_font"`
	Color    string `json:"txt_color"`
}

// Submission is the provider's receipt for a queued job. The result arrives
// later on the configured webhook.
type Submission struct {
	RequestID string `json:"request_id"`
	StatusURL string `json:"status_url,omitempty"`
}

type Submitter interface {
	Submit(ctx context.Context, videoURL string, options Options) (*Submission, error)
}

// StatusError is returned when the provider answers with a non 2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("caption provider: status %d: %s", e.Code, e.Body)
}

type ClientOptions struct {
	URL        string
	Model      string
	Key        string
	WebhookURL string
	Timeout    time.Duration
	Logger     *logrus.Logger
}

// Client queues caption jobs over the provider's HTTP queue API.
type Client struct {
	url        string
	model      string
	key        string
	webhookURL string
	http       *http.Client
	logger     *logrus.Logger
}

func New(options ClientOptions) *Client {
	logger := options.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		url:        options.URL,
		model:      options.Model,
		key:        options.Key,
		webhookURL: options.WebhookURL,
		http:       &http.Client{Timeout: options.Timeout},
		logger:     logger,
	}
}

type input struct {
	VideoURL string `json:"video_url"`
	Options
}

func (c *Client) Submit(ctx context.Context, videoURL string, options Options) (*Submission, error) {
	endpoint, err := url.JoinPath(c.url, c.model)
	if err != nil {
		return nil, fmt.Errorf("caption endpoint: %w", err)
	}

	if c.webhookURL != "" {
		endpoint += "?" + url.Values{"fal_webhook": {c.webhookURL}}.Encode()
	}

	body, err := json.Marshal(&input{VideoURL: videoURL, Options: options})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("caption request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.key)

	logger := c.logger.WithFields(logrus.Fields{
		"model":     c.model,
		"video_url": videoURL,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Error("caption submit failed")
		return nil, fmt.Errorf("caption submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		err := &StatusError{Code: resp.StatusCode, Body: string(data)}

		logger.WithField("status", resp.StatusCode).Error("caption provider refused job")

		return nil, fmt.Errorf("caption submit: %w", err)
	}

	var submission Submission
	if err := json.NewDecoder(resp.Body).Decode(&submission); err != nil {
		return nil, fmt.Errorf("caption response: %w", err)
	}

	logger.WithField("request_id", submission.RequestID).Info("caption job queued")

	return &submission, nil
}

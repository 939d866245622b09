package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pii-redactor/internal/core/types"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultClassifierTimeout = 10 * time.Second

// RemoteEntityClassifier calls an NER sidecar over HTTP.
type RemoteEntityClassifier struct {
	client *resty.Client
}

func NewRemoteEntityClassifier(baseURL string, timeout time.Duration) (*RemoteEntityClassifier, error) {
	if baseURL == "" {
		return nil, errors.New("classifier url must be set for remote classifier")
	}
	if timeout <= 0 {
		timeout = defaultClassifierTimeout
	}

	return &RemoteEntityClassifier{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(timeout),
	}, nil
}

type classifyRequest struct {
	Tokens []Token `json:"tokens"`
}

type classifyResponse struct {
	Labels []string `json:"labels"`
}

func (c *RemoteEntityClassifier) Classify(ctx context.Context, sentence []Token) ([]types.Category, error) {
	var reply classifyResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(classifyRequest{Tokens: sentence}).
		SetResult(&reply).
		Post("/classify")
	if err != nil {
		return nil, fmt.Errorf("error calling classifier: %w", err)
	}

	if !res.IsSuccess() {
		slog.Error("classifier returned error", "status_code", res.StatusCode(), "body", res.String())
		return nil, fmt.Errorf("classifier returned status %d", res.StatusCode())
	}

	if len(reply.Labels) != len(sentence) {
		return nil, fmt.Errorf("classifier returned %d labels for %d tokens", len(reply.Labels), len(sentence))
	}

	labels := make([]types.Category, len(reply.Labels))
	for i, raw := range reply.Labels {
		if raw == "" || raw == "O" {
			continue
		}
		category, err := types.ParseCategory(raw)
		if err != nil || !category.IsEntity() {
			slog.Debug("ignoring unsupported classifier label", "label", raw, "token_index", i)
			continue
		}
		labels[i] = category
	}
	return labels, nil
}

func (c *RemoteEntityClassifier) Release() {}

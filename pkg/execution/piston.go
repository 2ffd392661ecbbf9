package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/iamharada/stepwise-system/pkg/upstream"
)

const (
	// DefaultPistonURL is the public Piston execute endpoint.
	DefaultPistonURL = "https://emkc.org/api/v2/piston/execute"

	// DefaultVersion is the compiler version requested when none is given.
	DefaultVersion = "10.2.0"

	serviceName = "execution"
)

// ErrInvalidResponse is returned when Piston answers 2xx with a body that
// is not a result.
var ErrInvalidResponse = errors.New("invalid execution response")

// PistonConfig configures the Piston client.
type PistonConfig struct {
	URL     string
	Version string
}

// PistonClient calls a Piston execute endpoint.
type PistonClient struct {
	cfg  PistonConfig
	http *http.Client
}

// NewPistonClient creates a client. httpClient may be nil.
func NewPistonClient(cfg PistonConfig, httpClient *http.Client) *PistonClient {
	if cfg.URL == "" {
		cfg.URL = DefaultPistonURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &PistonClient{cfg: cfg, http: httpClient}
}

type pistonFile struct {
	Content string `json:"content"`
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

// Execute implements Client.
func (c *PistonClient) Execute(ctx context.Context, req Request) (*Result, error) {
	version := req.Version
	if version == "" {
		version = c.cfg.Version
	}

	body, err := json.Marshal(pistonRequest{
		Language: req.Language,
		Version:  version,
		Files:    []pistonFile{{Content: req.Source}},
		Stdin:    req.Stdin,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating execute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, upstream.Transport(serviceName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstream.FromResponse(serviceName, resp)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &result, nil
}

// Verify interface compliance.
var _ Client = (*PistonClient)(nil)

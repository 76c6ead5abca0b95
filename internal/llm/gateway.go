package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInferenceUnavailable covers missing credentials, transport failures,
// quota errors, timeouts and empty completions.
var ErrInferenceUnavailable = errors.New("inference service unavailable")

// CallSite selects the decoding parameters of a request.
type CallSite string

const (
	CallAnalysis CallSite = "analysis"
	CallRevision CallSite = "revision"
)

// Params are the per-call-site decoding parameters.
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Config is the static gateway configuration.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	Analysis Params
	Revision Params
}

// Enabled reports whether the configuration carries credentials.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Params returns the decoding parameters for site.
func (c Config) Params(site CallSite) Params {
	if site == CallRevision {
		return c.Revision
	}
	return c.Analysis
}

// Gateway issues exactly one completion request per call. Implementations never retry.
type Gateway interface {
	Complete(ctx context.Context, site CallSite, prompt Prompt) (string, error)
}

// Disabled is the gateway used when no credentials are configured.
type Disabled struct{}

// Complete always fails with ErrInferenceUnavailable.
func (Disabled) Complete(_ context.Context, site CallSite, _ Prompt) (string, error) {
	return "", fmt.Errorf("%w: no credentials configured for %s", ErrInferenceUnavailable, site)
}

var _ Gateway = Disabled{}

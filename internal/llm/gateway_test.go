package llm

import (
	"context"
	"errors"
	"testing"
)

func TestDisabledGateway(t *testing.T) {
	var g Gateway = Disabled{}
	_, err := g.Complete(context.Background(), CallAnalysis, Prompt{User: "x"})
	if !errors.Is(err, ErrInferenceUnavailable) {
		t.Fatalf("expected ErrInferenceUnavailable, got %v", err)
	}
}

func TestConfigParams(t *testing.T) {
	cfg := Config{
		Analysis: Params{MaxTokens: 6000, Temperature: 0.7},
		Revision: Params{MaxTokens: 2000, Temperature: 0.5},
	}
	if cfg.Enabled() {
		t.Fatalf("config without key must be disabled")
	}
	if got := cfg.Params(CallRevision); got.MaxTokens != 2000 {
		t.Fatalf("unexpected revision params %+v", got)
	}
	if got := cfg.Params(CallAnalysis); got.Temperature != 0.7 {
		t.Fatalf("unexpected analysis params %+v", got)
	}
	cfg.APIKey = " key "
	if !cfg.Enabled() {
		t.Fatalf("expected enabled config")
	}
}

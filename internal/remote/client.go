// Package remote calls the hosted speech-to-text and language-model
// extraction services.
package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config selects the remote endpoints and models.
type Config struct {
	BaseURL            string
	TranscriptionModel string
	ExtractionModel    string
	Temperature        float32
	// JSONMode asks the extraction model for a JSON object response.
	JSONMode         bool
	Timeout          time.Duration
	CredentialPrefix string
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// DefaultConfig returns the stock OpenAI settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://api.openai.com/v1",
		TranscriptionModel: openai.Whisper1,
		ExtractionModel:    openai.GPT4oMini,
		Temperature:        0,
		JSONMode:           true,
		Timeout:            60 * time.Second,
		CredentialPrefix:   DefaultCredentialPrefix,
	}
}

// newClient builds a per-call client so the credential only lives for the
// duration of the request.
func (c Config) newClient(credential string) *openai.Client {
	clientConfig := openai.DefaultConfig(credential)
	if base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"); base != "" {
		clientConfig.BaseURL = base
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}
	clientConfig.HTTPClient = httpClient

	return openai.NewClientWithConfig(clientConfig)
}

// Probe lists models to confirm the service is reachable and the
// credential is accepted.
func Probe(ctx context.Context, cfg Config, credential string) error {
	if err := ValidateCredential(credential, cfg.CredentialPrefix); err != nil {
		return err
	}
	if _, err := cfg.newClient(credential).ListModels(ctx); err != nil {
		return serviceError(ServiceModels, err)
	}
	return nil
}

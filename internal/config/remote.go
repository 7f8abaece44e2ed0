package config

import (
	"time"

	"github.com/rbright/tccc/internal/remote"
)

// Remote maps the openai and credential sections onto the service client config.
func (c Config) Remote() remote.Config {
	out := remote.DefaultConfig()
	out.BaseURL = c.OpenAI.BaseURL
	out.TranscriptionModel = c.OpenAI.TranscriptionModel
	out.ExtractionModel = c.OpenAI.ExtractionModel
	out.Temperature = float32(c.OpenAI.Temperature)
	out.Timeout = time.Duration(c.OpenAI.TimeoutMS) * time.Millisecond
	out.CredentialPrefix = c.Credential.Prefix
	return out
}

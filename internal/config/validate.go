package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rbright/tccc/internal/card"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	base := strings.TrimSpace(cfg.OpenAI.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("openai.base_url must not be empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("openai.base_url must be an absolute URL")
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return nil, fmt.Errorf("openai.base_url must use http or https")
	}
	if parsed.Scheme == "http" && !isLoopbackHost(parsed.Hostname()) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("openai.base_url %q is not TLS; the credential is sent in clear text", base)})
	}
	if strings.TrimSpace(cfg.OpenAI.TranscriptionModel) == "" {
		return nil, fmt.Errorf("openai.transcription_model must not be empty")
	}
	if strings.TrimSpace(cfg.OpenAI.ExtractionModel) == "" {
		return nil, fmt.Errorf("openai.extraction_model must not be empty")
	}
	if cfg.OpenAI.Temperature < 0 || cfg.OpenAI.Temperature > 2 {
		return nil, fmt.Errorf("openai.temperature must be between 0 and 2")
	}
	if cfg.OpenAI.TimeoutMS < 0 {
		return nil, fmt.Errorf("openai.timeout_ms must be >= 0")
	}

	if strings.TrimSpace(cfg.Credential.Env) == "" {
		return nil, fmt.Errorf("credential.env must not be empty")
	}
	if strings.ContainsAny(cfg.Credential.Prefix, " \t\r\n") {
		return nil, fmt.Errorf("credential.prefix must not contain whitespace")
	}

	if cfg.Audio.MaxSeconds < 0 {
		return nil, fmt.Errorf("audio.max_seconds must be >= 0")
	}
	if cfg.Audio.MaxSeconds == 0 {
		warnings = append(warnings, Warning{Message: "audio.max_seconds=0 disables the recording length limit"})
	}

	if err := cfg.FieldMap().Validate(); err != nil {
		return nil, err
	}

	defaults := card.DefaultVocabulary()
	seen := make(map[string]struct{}, len(cfg.Vocabulary.Mechanisms))
	for _, tag := range cfg.Vocabulary.Mechanisms {
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("vocabulary.mechanisms lists %q more than once", tag)
		}
		seen[key] = struct{}{}
		if _, ok := defaults.Canonical(tag); !ok {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("vocabulary mechanism %q is not on the standard casualty card", tag)})
		}
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	return warnings, nil
}

// FieldMap returns the default routes, the identity routes when
// card.merge_identity is set, and then the configured overrides.
func (c Config) FieldMap() card.FieldMap {
	fields := card.DefaultFieldMap()
	if c.Card.MergeIdentity {
		fields = fields.With(card.IdentityFieldMap())
	}
	return fields.With(c.Fields)
}

// MechanismVocabulary returns the configured checklist, or the default one.
func (c Config) MechanismVocabulary() card.Vocabulary {
	if len(c.Vocabulary.Mechanisms) == 0 {
		return card.DefaultVocabulary()
	}
	return append(card.Vocabulary(nil), c.Vocabulary.Mechanisms...)
}

// CredentialFromEnv reads the API key from the configured environment variable.
func (c Config) CredentialFromEnv() string {
	return os.Getenv(c.Credential.Env)
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

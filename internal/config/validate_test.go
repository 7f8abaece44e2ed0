package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/tccc/internal/card"
)

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty base url", mutate: func(c *Config) { c.OpenAI.BaseURL = " " }, wantErr: "openai.base_url"},
		{name: "relative base url", mutate: func(c *Config) { c.OpenAI.BaseURL = "api/v1" }, wantErr: "absolute URL"},
		{name: "bad scheme", mutate: func(c *Config) { c.OpenAI.BaseURL = "ftp://example.test" }, wantErr: "http or https"},
		{name: "empty transcription model", mutate: func(c *Config) { c.OpenAI.TranscriptionModel = "" }, wantErr: "transcription_model"},
		{name: "empty extraction model", mutate: func(c *Config) { c.OpenAI.ExtractionModel = "" }, wantErr: "extraction_model"},
		{name: "temperature range", mutate: func(c *Config) { c.OpenAI.Temperature = 2.5 }, wantErr: "temperature"},
		{name: "negative timeout", mutate: func(c *Config) { c.OpenAI.TimeoutMS = -1 }, wantErr: "timeout_ms"},
		{name: "empty credential env", mutate: func(c *Config) { c.Credential.Env = "" }, wantErr: "credential.env"},
		{name: "prefix whitespace", mutate: func(c *Config) { c.Credential.Prefix = "sk -" }, wantErr: "credential.prefix"},
		{name: "negative max seconds", mutate: func(c *Config) { c.Audio.MaxSeconds = -5 }, wantErr: "audio.max_seconds"},
		{name: "injury field route", mutate: func(c *Config) { c.Fields = map[string]string{card.KeyInjury: card.FieldNotes} }, wantErr: "vocabulary"},
		{name: "duplicate mechanism", mutate: func(c *Config) { c.Vocabulary.Mechanisms = []string{"GSW", "gsw"} }, wantErr: "more than once"},
		{name: "empty app name", mutate: func(c *Config) { c.Indicator.DesktopAppName = "" }, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.BaseURL = "http://gateway.example.test/v1"
	cfg.Audio.MaxSeconds = 0
	cfg.Vocabulary.Mechanisms = []string{"GSW", "Drone"}

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 3)
	require.Contains(t, warnings[0].Message, "not TLS")
	require.Contains(t, warnings[1].Message, "max_seconds=0")
	require.Contains(t, warnings[2].Message, `"Drone"`)
}

func TestValidateAllowsLoopbackHTTP(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.BaseURL = "http://localhost:8080/v1"
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestIndicatorDisabledAllowsEmptyAppName(t *testing.T) {
	cfg := Default()
	cfg.Indicator.Enable = false
	cfg.Indicator.DesktopAppName = ""
	_, err := Validate(cfg)
	require.NoError(t, err)
}

func TestCredentialFromEnv(t *testing.T) {
	cfg := Default()
	cfg.Credential.Env = "TCCC_TEST_KEY"
	t.Setenv("TCCC_TEST_KEY", "sk-test123")
	require.Equal(t, "sk-test123", cfg.CredentialFromEnv())
}

func TestMechanismVocabularyDefaultsAndCopies(t *testing.T) {
	cfg := Default()
	require.Equal(t, card.DefaultVocabulary(), cfg.MechanismVocabulary())

	cfg.Vocabulary.Mechanisms = []string{"GSW"}
	vocab := cfg.MechanismVocabulary()
	vocab[0] = "mutated"
	require.Equal(t, []string{"GSW"}, cfg.Vocabulary.Mechanisms)
}

func TestRemoteMapsOpenAISection(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.BaseURL = "http://127.0.0.1:9999/v1"
	cfg.OpenAI.Temperature = 0.5
	cfg.OpenAI.TimeoutMS = 2500
	cfg.Credential.Prefix = "sk-proj-"

	out := cfg.Remote()
	require.Equal(t, "http://127.0.0.1:9999/v1", out.BaseURL)
	require.Equal(t, "whisper-1", out.TranscriptionModel)
	require.Equal(t, "gpt-4o-mini", out.ExtractionModel)
	require.InDelta(t, 0.5, float64(out.Temperature), 1e-6)
	require.Equal(t, 2500*time.Millisecond, out.Timeout)
	require.Equal(t, "sk-proj-", out.CredentialPrefix)
	require.True(t, out.JSONMode)
}

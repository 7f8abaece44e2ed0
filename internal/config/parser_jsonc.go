package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	OpenAI     *jsoncOpenAI      `json:"openai"`
	Credential *jsoncCredential  `json:"credential"`
	Audio      *jsoncAudio       `json:"audio"`
	Card       *jsoncCard        `json:"card"`
	Vocabulary *jsoncVocabulary  `json:"vocabulary"`
	Fields     map[string]string `json:"fields"`
	Indicator  *jsoncIndicator   `json:"indicator"`
	Debug      *jsoncDebug       `json:"debug"`
}

type jsoncOpenAI struct {
	BaseURL            *string  `json:"base_url"`
	TranscriptionModel *string  `json:"transcription_model"`
	ExtractionModel    *string  `json:"extraction_model"`
	Temperature        *float64 `json:"temperature"`
	TimeoutMS          *int     `json:"timeout_ms"`
}

type jsoncCredential struct {
	Env    *string `json:"env"`
	Prefix *string `json:"prefix"`
}

type jsoncAudio struct {
	Input      *string `json:"input"`
	Fallback   *string `json:"fallback"`
	MaxSeconds *int    `json:"max_seconds"`
}

type jsoncCard struct {
	Path          *string `json:"path"`
	MergeIdentity *bool   `json:"merge_identity"`
}

type jsoncVocabulary struct {
	Mechanisms *jsoncStringList `json:"mechanisms"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	SoundEnable    *bool   `json:"sound_enable"`
	DesktopAppName *string `json:"desktop_app_name"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	standard, err := standardizeJSONC([]byte(content))
	if err != nil {
		return Config{}, nil, err
	}

	var payload jsoncConfig
	if err := decodeStrict(standard, &payload); err != nil {
		return Config{}, nil, err
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.OpenAI != nil {
		if payload.OpenAI.BaseURL != nil {
			cfg.OpenAI.BaseURL = strings.TrimSpace(*payload.OpenAI.BaseURL)
		}
		if payload.OpenAI.TranscriptionModel != nil {
			cfg.OpenAI.TranscriptionModel = strings.TrimSpace(*payload.OpenAI.TranscriptionModel)
		}
		if payload.OpenAI.ExtractionModel != nil {
			cfg.OpenAI.ExtractionModel = strings.TrimSpace(*payload.OpenAI.ExtractionModel)
		}
		if payload.OpenAI.Temperature != nil {
			cfg.OpenAI.Temperature = *payload.OpenAI.Temperature
		}
		if payload.OpenAI.TimeoutMS != nil {
			cfg.OpenAI.TimeoutMS = *payload.OpenAI.TimeoutMS
		}
	}

	if payload.Credential != nil {
		if payload.Credential.Env != nil {
			cfg.Credential.Env = strings.TrimSpace(*payload.Credential.Env)
		}
		if payload.Credential.Prefix != nil {
			cfg.Credential.Prefix = *payload.Credential.Prefix
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
		if payload.Audio.MaxSeconds != nil {
			cfg.Audio.MaxSeconds = *payload.Audio.MaxSeconds
		}
	}

	if payload.Card != nil {
		if payload.Card.Path != nil {
			cfg.Card.Path = strings.TrimSpace(*payload.Card.Path)
		}
		if payload.Card.MergeIdentity != nil {
			cfg.Card.MergeIdentity = *payload.Card.MergeIdentity
		}
	}

	if payload.Vocabulary != nil && payload.Vocabulary.Mechanisms != nil {
		cfg.Vocabulary.Mechanisms = nil
		for _, tag := range *payload.Vocabulary.Mechanisms {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			cfg.Vocabulary.Mechanisms = append(cfg.Vocabulary.Mechanisms, tag)
		}
		if len(cfg.Vocabulary.Mechanisms) == 0 {
			return nil, fmt.Errorf("vocabulary.mechanisms must list at least one tag")
		}
	}

	if payload.Fields != nil {
		fields := make(map[string]string, len(cfg.Fields)+len(payload.Fields))
		for key, field := range cfg.Fields {
			fields[key] = field
		}
		for key, field := range payload.Fields {
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fmt.Errorf("fields contains an empty key")
			}
			fields[key] = strings.TrimSpace(field)
		}
		cfg.Fields = fields
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *payload.Indicator.SoundEnable
		}
		if payload.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*payload.Indicator.DesktopAppName)
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}

	return warnings, nil
}

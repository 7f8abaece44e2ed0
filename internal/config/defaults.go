package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		OpenAI: OpenAIConfig{
			BaseURL:            "https://api.openai.com/v1",
			TranscriptionModel: "whisper-1",
			ExtractionModel:    "gpt-4o-mini",
			Temperature:        0,
			TimeoutMS:          60000,
		},
		Credential: CredentialConfig{
			Env:    "OPENAI_API_KEY",
			Prefix: "sk-",
		},
		Audio: AudioConfig{
			Input:      "default",
			Fallback:   "default",
			MaxSeconds: 300,
		},
		Vocabulary: VocabularyConfig{},
		Fields:     map[string]string{},
		Indicator: IndicatorConfig{
			Enable:         true,
			SoundEnable:    true,
			DesktopAppName: "tccc",
			ErrorTimeoutMS: 1600,
		},
		Debug: DebugConfig{},
	}
}

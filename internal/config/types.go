// Package config resolves, parses, validates, and defaults tccc configuration.
package config

// Config is the fully materialized runtime configuration used by tccc.
type Config struct {
	OpenAI     OpenAIConfig
	Credential CredentialConfig
	Audio      AudioConfig
	Card       CardConfig
	Vocabulary VocabularyConfig
	// Fields overrides the extraction-key to card-field routes.
	Fields    map[string]string
	Indicator IndicatorConfig
	Debug     DebugConfig
}

// OpenAIConfig selects the remote endpoint, models, and request timeout.
type OpenAIConfig struct {
	BaseURL            string
	TranscriptionModel string
	ExtractionModel    string
	Temperature        float64
	TimeoutMS          int
}

// CredentialConfig names where the API key is read from and its expected shape.
// The key itself is never part of the configuration.
type CredentialConfig struct {
	Env    string
	Prefix string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input      string
	Fallback   string
	MaxSeconds int
}

// CardConfig locates the persisted casualty card.
type CardConfig struct {
	Path string
	// MergeIdentity lets dictation overwrite identity fields such as name
	// and battle roster number.
	MergeIdentity bool
}

// VocabularyConfig overrides the injury-mechanism checklist.
type VocabularyConfig struct {
	Mechanisms []string
}

// IndicatorConfig controls desktop notification and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	SoundEnable    bool
	DesktopAppName string
	ErrorTimeoutMS int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

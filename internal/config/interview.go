package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// InterviewConfig holds the texts and rules that shape a dialogue session.
type InterviewConfig struct {
	RoleSelectionTemplate  string   `yaml:"role_selection_template"`
	PersonaTemplate        string   `yaml:"persona_template"`
	DefaultDifficulty      string   `yaml:"default_difficulty"`
	StartFallbackReply     string   `yaml:"start_fallback_reply"`
	ExchangeFallbackReply  string   `yaml:"exchange_fallback_reply"`
	EndIntentKeywords      []string `yaml:"end_intent_keywords"`
	ResumeSummaryMaxChars  int      `yaml:"resume_summary_max_chars"`
	VoiceName              string   `yaml:"voice_name"`
	DefaultAudioEncoding   string   `yaml:"default_audio_encoding"`
	DefaultSampleRateHertz int      `yaml:"default_sample_rate_hertz"`
}

// DefaultInterview returns the built-in interview settings.
func DefaultInterview() InterviewConfig {
	return InterviewConfig{
		RoleSelectionTemplate:  "I want to interview for the %s role.",
		PersonaTemplate:        "Professional technical interviewer for %s role",
		DefaultDifficulty:      "Medium",
		StartFallbackReply:     "Thank you for your interest. Let's begin the interview.",
		ExchangeFallbackReply:  "I didn't catch that. Could you please repeat your answer?",
		EndIntentKeywords:      []string{"end", "complete", "finish", "done"},
		ResumeSummaryMaxChars:  500,
		VoiceName:              "en-US-Journey-O",
		DefaultAudioEncoding:   "AUDIO_ENCODING_WEBM_OPUS",
		DefaultSampleRateHertz: 24000,
	}
}

// LoadInterview reads a YAML file over the built-in defaults.
// Keys missing from the file keep their default values.
func LoadInterview(filename string) (InterviewConfig, error) {
	cfg := DefaultInterview()

	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("read interview config %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse interview config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid interview config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail at request time.
func (c InterviewConfig) Validate() error {
	if strings.Count(c.RoleSelectionTemplate, "%s") != 1 {
		return fmt.Errorf("role_selection_template must contain exactly one %%s")
	}
	if strings.Count(c.PersonaTemplate, "%s") > 1 {
		return fmt.Errorf("persona_template may contain at most one %%s")
	}
	if len(c.EndIntentKeywords) == 0 {
		return fmt.Errorf("end_intent_keywords must not be empty")
	}
	for _, k := range c.EndIntentKeywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("end_intent_keywords must not contain blank entries")
		}
	}
	if c.ResumeSummaryMaxChars < 0 {
		return fmt.Errorf("resume_summary_max_chars cannot be negative")
	}
	if c.DefaultSampleRateHertz <= 0 {
		return fmt.Errorf("default_sample_rate_hertz must be positive")
	}
	return nil
}

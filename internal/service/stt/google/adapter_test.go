package google

import (
	"errors"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"ai-interview-service/internal/service/stt"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.LanguageCode)
	}
	if cfg.Credentials != "" {
		t.Errorf("expected no default credentials, got %q", cfg.Credentials)
	}
}

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"AMR", speechpb.RecognitionConfig_AMR},
		{"AMR_WB", speechpb.RecognitionConfig_AMR_WB},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"SPEEX_WITH_HEADER_BYTE", speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"AUDIO_ENCODING_LINEAR_16", speechpb.RecognitionConfig_LINEAR16},
		{"AUDIO_ENCODING_WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"AUDIO_ENCODING_OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAudioEncoding(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseAudioEncoding_Unsupported(t *testing.T) {
	// Encoding names are case sensitive.
	for _, input := range []string{"", "UNKNOWN", "invalid", "linear16", "ENCODING_UNSPECIFIED"} {
		t.Run(input, func(t *testing.T) {
			_, err := parseAudioEncoding(input)
			if !errors.Is(err, stt.ErrUnsupportedEncoding) {
				t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
			}
		})
	}
}

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest(Config{LanguageCode: "es-ES"}, stt.Request{
		Audio:        []byte{1, 2, 3, 4},
		Encoding:     "AUDIO_ENCODING_LINEAR_16",
		SampleRateHz: 16000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.GetConfig().GetEncoding() != speechpb.RecognitionConfig_LINEAR16 {
		t.Errorf("unexpected encoding %v", req.GetConfig().GetEncoding())
	}
	if req.GetConfig().GetSampleRateHertz() != 16000 {
		t.Errorf("expected sample rate 16000, got %d", req.GetConfig().GetSampleRateHertz())
	}
	if req.GetConfig().GetLanguageCode() != "es-ES" {
		t.Errorf("expected language 'es-ES', got %s", req.GetConfig().GetLanguageCode())
	}
	if len(req.GetAudio().GetContent()) != 4 {
		t.Errorf("expected 4 bytes of content, got %d", len(req.GetAudio().GetContent()))
	}
}

func TestParseResponse(t *testing.T) {
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "I led the migration", Confidence: 0.9}}},
			{},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " to Kubernetes ", Confidence: 0.8}}},
		},
	}

	got := parseResponse(resp)
	if got.Text != "I led the migration to Kubernetes" {
		t.Errorf("unexpected text %q", got.Text)
	}
	if got.Confidence < 0.89 || got.Confidence > 0.91 {
		t.Errorf("expected confidence of first result, got %v", got.Confidence)
	}
}

func TestParseResponse_NoResults(t *testing.T) {
	got := parseResponse(&speechpb.RecognizeResponse{})
	if got.Text != "" || got.Confidence != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

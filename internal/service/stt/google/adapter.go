// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"ai-interview-service/internal/service/stt"
)

// Config holds recognition settings.
type Config struct {
	LanguageCode string
	Credentials  string // service account JSON; empty uses application default credentials
}

// DefaultConfig returns the default recognition settings.
func DefaultConfig() Config {
	return Config{LanguageCode: "en-US"}
}

// Adapter implements stt.Transcriber using synchronous recognition.
type Adapter struct {
	client *speech.Client
	cfg    Config
}

// New creates a new Google STT adapter.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.Credentials)))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Transcribe sends the whole utterance in one Recognize call and joins the
// top alternative of every result.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	pbReq, err := buildRequest(a.cfg, req)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Recognize(ctx, pbReq)
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}
	return parseResponse(resp), nil
}

// Close closes the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

func buildRequest(cfg Config, req stt.Request) (*speechpb.RecognizeRequest, error) {
	enc, err := parseAudioEncoding(req.Encoding)
	if err != nil {
		return nil, err
	}
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        enc,
			SampleRateHertz: int32(req.SampleRateHz),
			LanguageCode:    cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: req.Audio},
		},
	}, nil
}

func parseResponse(resp *speechpb.RecognizeResponse) *stt.Result {
	var (
		parts      []string
		confidence float64
	)
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		if len(parts) == 0 {
			confidence = float64(alt.GetConfidence())
		}
		if t := strings.TrimSpace(alt.GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return &stt.Result{Text: strings.Join(parts, " "), Confidence: confidence}
}

// parseAudioEncoding maps Dialogflow-style names (AUDIO_ENCODING_LINEAR_16)
// and plain Speech names (LINEAR16) to the Speech enum.
func parseAudioEncoding(name string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	n := strings.TrimPrefix(strings.TrimSpace(name), "AUDIO_ENCODING_")
	if n == "LINEAR_16" {
		n = "LINEAR16"
	}
	v, ok := speechpb.RecognitionConfig_AudioEncoding_value[n]
	if !ok || v == int32(speechpb.RecognitionConfig_ENCODING_UNSPECIFIED) {
		return 0, fmt.Errorf("%w: %q", stt.ErrUnsupportedEncoding, name)
	}
	return speechpb.RecognitionConfig_AudioEncoding(v), nil
}

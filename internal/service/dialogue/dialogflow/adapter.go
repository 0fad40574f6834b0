// Package dialogflow provides a Dialogflow CX dialogue adapter.
package dialogflow

import (
	"context"
	"fmt"
	"strings"

	cx "cloud.google.com/go/dialogflow/cx/apiv3"
	"cloud.google.com/go/dialogflow/cx/apiv3/cxpb"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"ai-interview-service/internal/service/dialogue"
)

// Config identifies the agent and the voice used for synthesized replies.
type Config struct {
	ProjectID    string
	LocationID   string
	AgentID      string
	LanguageCode string
	Credentials  string // service account JSON; empty uses application default credentials
	VoiceName    string
}

// DefaultConfig returns a Config with the default location, language and voice.
func DefaultConfig() Config {
	return Config{
		LocationID:   "us-central1",
		LanguageCode: "en",
		VoiceName:    "en-US-Journey-O",
	}
}

// Adapter implements dialogue.Adapter using the Dialogflow CX Sessions API.
type Adapter struct {
	cfg    Config
	client *cx.SessionsClient
}

// New creates a Sessions client bound to the agent's regional endpoint.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.ProjectID == "" || cfg.AgentID == "" {
		return nil, fmt.Errorf("dialogflow: project and agent ids are required")
	}

	opts := []option.ClientOption{option.WithEndpoint(endpoint(cfg.LocationID))}
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.Credentials)))
	}

	c, err := cx.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create dialogflow sessions client: %w", err)
	}

	log.Info().
		Str("component", "dialogue").
		Str("provider", "dialogflow").
		Str("location", cfg.LocationID).
		Str("agent", cfg.AgentID).
		Msg("Dialogflow CX client initialized")

	return &Adapter{cfg: cfg, client: c}, nil
}

// DetectIntent sends one text or audio turn to the agent.
func (a *Adapter) DetectIntent(ctx context.Context, req dialogue.Request) (*dialogue.Response, error) {
	pbReq, err := buildRequest(a.cfg, req)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.DetectIntent(ctx, pbReq)
	if err != nil {
		return nil, fmt.Errorf("dialogflow detect intent: %w", err)
	}
	return parseResponse(resp), nil
}

func (a *Adapter) Close() error {
	return a.client.Close()
}

// SessionPath returns the stable session address for sessionID.
func SessionPath(cfg Config, sessionID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/agents/%s/sessions/%s",
		cfg.ProjectID, cfg.LocationID, cfg.AgentID, sessionID)
}

func endpoint(location string) string {
	if location == "" || location == "global" {
		return "dialogflow.googleapis.com:443"
	}
	return location + "-dialogflow.googleapis.com:443"
}

func buildRequest(cfg Config, req dialogue.Request) (*cxpb.DetectIntentRequest, error) {
	in := &cxpb.QueryInput{LanguageCode: cfg.LanguageCode}

	if len(req.Audio) > 0 {
		enc, err := parseAudioEncoding(req.AudioEncoding)
		if err != nil {
			return nil, err
		}
		in.Input = &cxpb.QueryInput_Audio{
			Audio: &cxpb.AudioInput{
				Config: &cxpb.InputAudioConfig{
					AudioEncoding:   enc,
					SampleRateHertz: int32(req.SampleRateHz),
				},
				Audio: req.Audio,
			},
		}
	} else {
		in.Input = &cxpb.QueryInput_Text{Text: &cxpb.TextInput{Text: req.Text}}
	}

	pbReq := &cxpb.DetectIntentRequest{
		Session:    SessionPath(cfg, req.SessionID),
		QueryInput: in,
	}

	if req.Parameters != nil {
		params, err := structpb.NewStruct(req.Parameters)
		if err != nil {
			return nil, fmt.Errorf("encode session parameters: %w", err)
		}
		pbReq.QueryParams = &cxpb.QueryParameters{Parameters: params}
	}

	if req.SynthesizeSpeech {
		pbReq.OutputAudioConfig = &cxpb.OutputAudioConfig{
			AudioEncoding: cxpb.OutputAudioEncoding_OUTPUT_AUDIO_ENCODING_MP3,
			SynthesizeSpeechConfig: &cxpb.SynthesizeSpeechConfig{
				Voice: &cxpb.VoiceSelectionParams{Name: cfg.VoiceName},
			},
		}
	}

	return pbReq, nil
}

func parseResponse(resp *cxpb.DetectIntentResponse) *dialogue.Response {
	qr := resp.GetQueryResult()

	out := &dialogue.Response{
		ReplyText:      firstText(qr.GetResponseMessages()),
		Intent:         qr.GetIntent().GetDisplayName(),
		UserTranscript: qr.GetTranscript(),
	}
	if out.Intent == "" {
		out.Intent = qr.GetMatch().GetIntent().GetDisplayName()
	}
	if out.UserTranscript == "" {
		out.UserTranscript = qr.GetText()
	}
	if len(resp.GetOutputAudio()) > 0 {
		out.Audio = resp.GetOutputAudio()
		out.AudioFormat = "mp3"
	}
	return out
}

// firstText returns the first non-empty text among the agent's messages.
func firstText(msgs []*cxpb.ResponseMessage) string {
	for _, m := range msgs {
		for _, t := range m.GetText().GetText() {
			if strings.TrimSpace(t) != "" {
				return t
			}
		}
	}
	return ""
}

// parseAudioEncoding accepts Dialogflow names with or without the
// AUDIO_ENCODING_ prefix.
func parseAudioEncoding(name string) (cxpb.AudioEncoding, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "AUDIO_ENCODING_") {
		n = "AUDIO_ENCODING_" + n
	}
	v, ok := cxpb.AudioEncoding_value[n]
	if !ok || v == int32(cxpb.AudioEncoding_AUDIO_ENCODING_UNSPECIFIED) {
		return 0, fmt.Errorf("%w: %q", dialogue.ErrUnsupportedEncoding, name)
	}
	return cxpb.AudioEncoding(v), nil
}

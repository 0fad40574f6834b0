// Command interviewclient drives a full interview against a running service:
// start, one exchange per answer, then score.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-interview-service/internal/service/audio"
)

type client struct {
	server string
	http   *http.Client
}

func main() {
	serverAddr := flag.String("server", "http://localhost:5001", "Interview service base URL")
	sessionID := flag.String("session", "", "Session ID (random when empty)")
	role := flag.String("role", "Backend Engineer", "Role to interview for")
	difficulty := flag.String("difficulty", "Medium", "Interview difficulty")
	answers := flag.String("answers", "", "Typed answers separated by |")
	audioFiles := flag.String("audio", "", "Comma separated WAV files, one per answer")
	flag.Parse()

	if *sessionID == "" {
		*sessionID = uuid.NewString()
	}
	if *answers == "" && *audioFiles == "" {
		log.Fatal("Provide -answers or -audio")
	}

	c := &client{
		server: strings.TrimRight(*serverAddr, "/"),
		http:   &http.Client{Timeout: 60 * time.Second},
	}

	log.Printf("Starting interview: session=%s role=%q difficulty=%s", *sessionID, *role, *difficulty)
	var started struct {
		AgentReplyText string `json:"agent_reply_text"`
	}
	if err := c.postJSON("/start", map[string]string{
		"session_id": *sessionID,
		"role":       *role,
		"difficulty": *difficulty,
	}, &started); err != nil {
		log.Fatalf("Start failed: %v", err)
	}
	log.Printf("Agent: %s", started.AgentReplyText)

	if *audioFiles != "" {
		for _, path := range strings.Split(*audioFiles, ",") {
			if done := c.sendAudio(*sessionID, strings.TrimSpace(path)); done {
				break
			}
		}
	} else {
		for _, answer := range strings.Split(*answers, "|") {
			if done := c.sendText(*sessionID, strings.TrimSpace(answer)); done {
				break
			}
		}
	}

	// scores may come back as numbers or strings
	var report struct {
		QuestionScores []struct {
			QuestionNumber any    `json:"question_number"`
			Score          any    `json:"score"`
			Justification  string `json:"justification"`
		} `json:"question_scores"`
		OverallScore any    `json:"overall_score"`
		Summary      string `json:"summary"`
	}
	if err := c.postJSON("/score", map[string]string{"session_id": *sessionID}, &report); err != nil {
		log.Fatalf("Score failed: %v", err)
	}

	for _, qs := range report.QuestionScores {
		log.Printf("Q%v: %v - %s", qs.QuestionNumber, qs.Score, qs.Justification)
	}
	log.Printf("Overall: %v", report.OverallScore)
	log.Printf("Summary: %s", report.Summary)
}

// sendText posts one typed answer and reports whether the interview ended.
func (c *client) sendText(sessionID, answer string) bool {
	log.Printf("You: %s", answer)
	var res struct {
		AgentReplyText string `json:"agent_reply_text"`
		IsEnd          bool   `json:"is_end"`
	}
	if err := c.postJSON("/exchange", map[string]string{
		"session_id":  sessionID,
		"answer_text": answer,
	}, &res); err != nil {
		log.Fatalf("Exchange failed: %v", err)
	}
	log.Printf("Agent: %s", res.AgentReplyText)
	return res.IsEnd
}

// sendAudio uploads one WAV answer and reports whether the interview ended.
func (c *client) sendAudio(sessionID, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}

	h, err := audio.ParseWAVHeader(data)
	if err != nil {
		log.Fatalf("%s: %v", path, err)
	}
	if h.AudioFormat != 1 { // PCM
		log.Fatalf("%s: only PCM WAV is supported", path)
	}
	log.Printf("WAV file %s: channels=%d sampleRate=%d bitsPerSample=%d",
		filepath.Base(path), h.Channels, h.SampleRate, h.BitsPerSample)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("session_id", sessionID)
	_ = mw.WriteField("sample_rate", fmt.Sprint(h.SampleRate))
	fw, err := mw.CreateFormFile("audio", filepath.Base(path))
	if err != nil {
		log.Fatalf("Failed to build form: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		log.Fatalf("Failed to build form: %v", err)
	}
	if err := mw.Close(); err != nil {
		log.Fatalf("Failed to build form: %v", err)
	}

	resp, err := c.http.Post(c.server+"/exchange", mw.FormDataContentType(), &body)
	if err != nil {
		log.Fatalf("Exchange failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		log.Fatalf("Exchange failed: %s: %s", resp.Status, msg)
	}

	if resp.Header.Get("Content-Type") == "audio/mpeg" {
		n, _ := io.Copy(io.Discard, resp.Body)
		log.Printf("You (transcribed): %s", resp.Header.Get("X-Response-Transcript"))
		log.Printf("Agent: %s (%d bytes of audio)", resp.Header.Get("X-Response-Text"), n)
		return resp.Header.Get("X-Response-IsEnd") == "true"
	}

	var res struct {
		AgentReplyText string `json:"agent_reply_text"`
		UserTranscript string `json:"user_transcript"`
		IsEnd          bool   `json:"is_end"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		log.Fatalf("Failed to decode exchange response: %v", err)
	}
	log.Printf("You (transcribed): %s", res.UserTranscript)
	log.Printf("Agent: %s", res.AgentReplyText)
	return res.IsEnd
}

func (c *client) postJSON(path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.server+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Package audio selects the input encoding for an uploaded answer and
// enforces upload limits. Audio is only held in memory for one request.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Dialogflow-style encoding names.
const (
	EncodingLinear16 = "AUDIO_ENCODING_LINEAR_16"
	EncodingMP3      = "AUDIO_ENCODING_MP3"
	EncodingWebMOpus = "AUDIO_ENCODING_WEBM_OPUS"
)

var (
	ErrEmptyAudio    = errors.New("no audio provided")
	ErrAudioTooLarge = errors.New("audio exceeds size limit")
	ErrInvalidWAV    = errors.New("not a valid WAV file")
)

// Limits guards request memory.
type Limits struct {
	MaxBytes int64 // 0 disables the check
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{MaxBytes: 10 * 1024 * 1024}
}

// Check validates an already buffered payload.
func (l Limits) Check(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyAudio
	}
	if l.MaxBytes > 0 && int64(len(data)) > l.MaxBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrAudioTooLarge, len(data), l.MaxBytes)
	}
	return nil
}

// Read buffers r, failing as soon as more than MaxBytes are available.
func (l Limits) Read(r io.Reader) ([]byte, error) {
	if l.MaxBytes > 0 {
		r = io.LimitReader(r, l.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if err := l.Check(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Format is the encoding and sample rate sent with an utterance.
type Format struct {
	Encoding     string
	SampleRateHz int
}

// Select picks the input format. Explicit encoding and sample rate always win;
// otherwise the filename extension decides, and a WAV header, when present,
// supplies the real sample rate.
func Select(filename, encoding string, sampleRateHz int, data []byte) Format {
	f := byExtension(filename)

	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		if h, err := ParseWAVHeader(data); err == nil && h.SampleRate > 0 {
			f.SampleRateHz = int(h.SampleRate)
		}
	}
	if encoding != "" {
		f.Encoding = encoding
	}
	if sampleRateHz > 0 {
		f.SampleRateHz = sampleRateHz
	}
	return f
}

func byExtension(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return Format{Encoding: EncodingLinear16, SampleRateHz: 16000}
	case ".mp3":
		return Format{Encoding: EncodingMP3, SampleRateHz: 24000}
	default:
		return Format{Encoding: EncodingWebMOpus, SampleRateHz: 24000}
	}
}

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// WAVHeader holds the fmt chunk fields of a canonical PCM WAV file.
type WAVHeader struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// ParseWAVHeader reads the canonical 44-byte RIFF/WAVE header.
func ParseWAVHeader(data []byte) (WAVHeader, error) {
	if len(data) < wavHeaderSize {
		return WAVHeader{}, fmt.Errorf("%w: short header", ErrInvalidWAV)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVHeader{}, ErrInvalidWAV
	}
	return WAVHeader{
		AudioFormat:   binary.LittleEndian.Uint16(data[20:22]),
		Channels:      binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
	}, nil
}

package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// wavBytes builds a minimal PCM WAV file with n bytes of silence.
func wavBytes(sampleRate uint32, n int) []byte {
	buf := make([]byte, wavHeaderSize+n)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+n))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(n))
	return buf
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		encoding string
		rate     int
		data     []byte
		want     Format
	}{
		{"wav default", "answer.wav", "", 0, nil, Format{EncodingLinear16, 16000}},
		{"wav uppercase ext", "ANSWER.WAV", "", 0, nil, Format{EncodingLinear16, 16000}},
		{"wav header rate", "answer.wav", "", 0, wavBytes(8000, 10), Format{EncodingLinear16, 8000}},
		{"mp3", "answer.mp3", "", 0, nil, Format{EncodingMP3, 24000}},
		{"webm", "answer.webm", "", 0, nil, Format{EncodingWebMOpus, 24000}},
		{"no filename", "", "", 0, nil, Format{EncodingWebMOpus, 24000}},
		{"explicit encoding", "answer.wav", "AUDIO_ENCODING_FLAC", 0, nil, Format{"AUDIO_ENCODING_FLAC", 16000}},
		{"explicit rate beats header", "answer.wav", "", 44100, wavBytes(8000, 10), Format{EncodingLinear16, 44100}},
		{"explicit both", "blob", "AUDIO_ENCODING_OGG_OPUS", 48000, nil, Format{"AUDIO_ENCODING_OGG_OPUS", 48000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.filename, tt.encoding, tt.rate, tt.data)
			if got != tt.want {
				t.Errorf("Select() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLimits_Check(t *testing.T) {
	limits := Limits{MaxBytes: 100}

	if err := limits.Check(nil); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
	if err := limits.Check(make([]byte, 100)); err != nil {
		t.Errorf("expected payload at the limit to pass, got %v", err)
	}
	if err := limits.Check(make([]byte, 101)); !errors.Is(err, ErrAudioTooLarge) {
		t.Errorf("expected ErrAudioTooLarge, got %v", err)
	}
	if err := (Limits{}).Check(make([]byte, 1<<20)); err != nil {
		t.Errorf("expected zero limit to disable the check, got %v", err)
	}
}

func TestLimits_Read(t *testing.T) {
	limits := Limits{MaxBytes: 10}

	data, err := limits.Read(bytes.NewReader([]byte("0123456789")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 10 {
		t.Errorf("expected 10 bytes, got %d", len(data))
	}

	if _, err := limits.Read(bytes.NewReader(make([]byte, 1000))); !errors.Is(err, ErrAudioTooLarge) {
		t.Errorf("expected ErrAudioTooLarge, got %v", err)
	}
	if _, err := limits.Read(bytes.NewReader(nil)); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestDefaultLimits(t *testing.T) {
	if DefaultLimits().MaxBytes != 10*1024*1024 {
		t.Errorf("expected 10MB default, got %d", DefaultLimits().MaxBytes)
	}
}

func TestParseWAVHeader(t *testing.T) {
	h, err := ParseWAVHeader(wavBytes(16000, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := WAVHeader{AudioFormat: 1, Channels: 1, SampleRate: 16000, BitsPerSample: 16}
	if h != want {
		t.Errorf("ParseWAVHeader() = %+v, want %+v", h, want)
	}
}

func TestParseWAVHeader_Invalid(t *testing.T) {
	notWAV := make([]byte, wavHeaderSize)
	copy(notWAV, "OggS")

	for name, data := range map[string][]byte{
		"short":   []byte("RIFF"),
		"not wav": notWAV,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseWAVHeader(data); !errors.Is(err, ErrInvalidWAV) {
				t.Errorf("expected ErrInvalidWAV, got %v", err)
			}
		})
	}
}

package tts

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestParseAudioMIME(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		wantBits int
		wantRate int
	}{
		{"typical", "audio/L16;rate=24000", 16, 24000},
		{"spaced", "audio/L24; rate=48000", 24, 48000},
		{"noRate", "audio/L16", 16, 24000},
		{"empty", "", 16, 24000},
		{"garbageRate", "audio/L16;rate=abc", 16, 24000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits, rate := ParseAudioMIME(tt.mime)
			if bits != tt.wantBits || rate != tt.wantRate {
				t.Errorf("ParseAudioMIME(%q) = (%d, %d), want (%d, %d)",
					tt.mime, bits, rate, tt.wantBits, tt.wantRate)
			}
		})
	}
}

func TestWrapWAV(t *testing.T) {
	pcm := make([]byte, 480)
	out := WrapWAV(pcm, "audio/L16;rate=24000")

	if len(out) != 44+len(pcm) {
		t.Fatalf("len = %d, want %d", len(out), 44+len(pcm))
	}
	if !bytes.Equal(out[0:4], []byte("RIFF")) || !bytes.Equal(out[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE markers")
	}

	if rate := binary.LittleEndian.Uint32(out[24:28]); rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if bits := binary.LittleEndian.Uint16(out[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
	if size := binary.LittleEndian.Uint32(out[40:44]); size != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", size, len(pcm))
	}
	if !bytes.Equal(out[44:], pcm) {
		t.Error("payload altered")
	}
}

package tts

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
)

// Fallbacks when the MIME type omits parameters; the provider's raw PCM
// streams are 16-bit mono at 24 kHz.
const (
	defaultBitsPerSample = 16
	defaultSampleRate    = 24000
)

// ParseAudioMIME extracts bits-per-sample and sample rate from a MIME type
// like "audio/L16;rate=24000".
func ParseAudioMIME(mimeType string) (bitsPerSample, rate int) {
	bitsPerSample = defaultBitsPerSample
	rate = defaultSampleRate

	for _, part := range strings.Split(mimeType, ";") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(strings.ToLower(part), "rate="):
			if v, err := strconv.Atoi(part[len("rate="):]); err == nil {
				rate = v
			}
		case strings.HasPrefix(part, "audio/L"):
			if v, err := strconv.Atoi(part[len("audio/L"):]); err == nil {
				bitsPerSample = v
			}
		}
	}
	return bitsPerSample, rate
}

// WrapWAV frames raw PCM data in a standard RIFF/WAVE header.
// Layout per http://soundfile.sapp.org/doc/WaveFormat/.
func WrapWAV(pcm []byte, mimeType string) []byte {
	bitsPerSample, sampleRate := ParseAudioMIME(mimeType)

	const numChannels = 1
	bytesPerSample := bitsPerSample / 8
	blockAlign := numChannels * bytesPerSample
	byteRate := sampleRate * blockAlign
	dataSize := uint32(len(pcm))

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36)+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16)) // PCM subchunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}

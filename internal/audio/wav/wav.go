package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the canonical PCM WAV header.
const HeaderSize = 44

// ErrMalformed is returned when a buffer is not a canonical PCM WAV file.
var ErrMalformed = errors.New("malformed wav")

// Header describes the fields of a canonical 44-byte PCM WAV header.
type Header struct {
	RIFFSize      uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// WriteHeader writes a 44-byte WAV header for 16-bit PCM.
func WriteHeader(w io.Writer, dataSize, sampleRate, channels int) error {
	blockAlign := channels * 2
	fields := []any{
		[]byte("RIFF"),
		uint32(36 + dataSize),
		[]byte("WAVE"),
		[]byte("fmt "),
		uint32(16), // sub-chunk size
		uint16(1),  // PCM
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * blockAlign),
		uint16(blockAlign),
		uint16(16),
		[]byte("data"),
		uint32(dataSize),
	}
	for _, f := range fields {
		if b, ok := f.([]byte); ok {
			if _, err := w.Write(b); err != nil {
				return err
			}
			continue
		}
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// Encode wraps mono 16-bit samples in a WAV container.
func Encode(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + 2*len(samples))
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteHeader(&buf, 2*len(samples), sampleRate, 1)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// ParseHeader decodes and sanity-checks the header of a canonical WAV buffer.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" ||
		string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return h, fmt.Errorf("%w: bad chunk identifiers", ErrMalformed)
	}

	le := binary.LittleEndian
	h.RIFFSize = le.Uint32(data[4:8])
	h.AudioFormat = le.Uint16(data[20:22])
	h.Channels = le.Uint16(data[22:24])
	h.SampleRate = le.Uint32(data[24:28])
	h.ByteRate = le.Uint32(data[28:32])
	h.BlockAlign = le.Uint16(data[32:34])
	h.BitsPerSample = le.Uint16(data[34:36])
	h.DataSize = le.Uint32(data[40:44])
	return h, nil
}

// IsWAV reports whether data starts with a RIFF/WAVE signature.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

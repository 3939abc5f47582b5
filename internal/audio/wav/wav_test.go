package wav

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeHeaderMatchesPayload(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	data := Encode(samples, 22050)

	if len(data) != HeaderSize+2*len(samples) {
		t.Fatalf("len = %d, want %d", len(data), HeaderSize+2*len(samples))
	}

	h, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if int(h.DataSize) != len(data)-HeaderSize {
		t.Errorf("data size = %d, want %d", h.DataSize, len(data)-HeaderSize)
	}
	if int(h.RIFFSize) != len(data)-8 {
		t.Errorf("riff size = %d, want %d", h.RIFFSize, len(data)-8)
	}
	if h.AudioFormat != 1 || h.Channels != 1 || h.BitsPerSample != 16 {
		t.Errorf("format/channels/bits = %d/%d/%d, want 1/1/16", h.AudioFormat, h.Channels, h.BitsPerSample)
	}
	if h.SampleRate != 22050 || h.ByteRate != 44100 || h.BlockAlign != 2 {
		t.Errorf("rate/byterate/align = %d/%d/%d", h.SampleRate, h.ByteRate, h.BlockAlign)
	}
}

func TestEncodeLittleEndianSamples(t *testing.T) {
	data := Encode([]int16{0x0102, -2}, 16000)
	want := []byte{0x02, 0x01, 0xfe, 0xff}
	if !bytes.Equal(data[HeaderSize:], want) {
		t.Errorf("payload = %x, want %x", data[HeaderSize:], want)
	}
}

func TestEncodeEmpty(t *testing.T) {
	data := Encode(nil, 22050)
	h, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.DataSize != 0 || h.RIFFSize != 36 {
		t.Errorf("data/riff = %d/%d, want 0/36", h.DataSize, h.RIFFSize)
	}
}

func TestParseHeaderRejectsGarbage(t *testing.T) {
	if _, err := ParseHeader([]byte("short")); !errors.Is(err, ErrMalformed) {
		t.Errorf("short buffer: err = %v, want ErrMalformed", err)
	}
	junk := make([]byte, HeaderSize)
	copy(junk, "ID3")
	if _, err := ParseHeader(junk); !errors.Is(err, ErrMalformed) {
		t.Errorf("mp3 buffer: err = %v, want ErrMalformed", err)
	}
	if IsWAV(junk) {
		t.Error("IsWAV should be false for ID3 data")
	}
}

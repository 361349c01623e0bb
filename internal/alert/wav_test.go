package alert

import (
	"encoding/base64"
	"testing"
)

func TestDecodeWAVRoundtrip(t *testing.T) {
	clip := &Clip{
		SampleRate: 22050,
		Channels:   2,
		Samples:    []int16{0, 32767, -32768, 12345, -1, 7},
	}
	payload := base64.StdEncoding.EncodeToString(encodeWAV(clip))

	got, err := DecodeWAV(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SampleRate != 22050 || got.Channels != 2 {
		t.Fatalf("unexpected format: rate=%d channels=%d", got.SampleRate, got.Channels)
	}
	if len(got.Samples) != len(clip.Samples) {
		t.Fatalf("expected %d samples, got %d", len(clip.Samples), len(got.Samples))
	}
	for i, want := range clip.Samples {
		if got.Samples[i] != want {
			t.Fatalf("sample %d: got %d, want %d", i, got.Samples[i], want)
		}
	}
}

func TestDecodeWAVDataURL(t *testing.T) {
	clip := &Clip{SampleRate: 8000, Channels: 1, Samples: []int16{1, 2, 3}}
	payload := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(encodeWAV(clip))

	got, err := DecodeWAV(payload)
	if err != nil {
		t.Fatalf("decode with data URL prefix: %v", err)
	}
	if len(got.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got.Samples))
	}
}

func TestDecodeWAVErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"not base64", "%%%%"},
		{"not riff", base64.StdEncoding.EncodeToString([]byte("hello world, this is not audio"))},
		{"malformed data URL", "data:audio/wav;base64"},
		{"truncated", base64.StdEncoding.EncodeToString(encodeWAV(&Clip{SampleRate: 8000, Channels: 1, Samples: []int16{1, 2, 3}})[:20])},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeWAV(tc.payload); err == nil {
				t.Fatalf("expected an error for %q", tc.name)
			}
		})
	}
}

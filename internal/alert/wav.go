package alert

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// DecodeWAV decodes a stored custom-sound payload: a base64 string,
// optionally carrying a data-URL prefix, containing a 16-bit PCM WAV file.
func DecodeWAV(payload string) (*Clip, error) {
	if payload == "" {
		return nil, errors.New("empty audio payload")
	}

	// uploads arrive as data URLs ("data:audio/wav;base64,...")
	if strings.HasPrefix(payload, "data:") {
		i := strings.IndexByte(payload, ',')
		if i < 0 {
			return nil, errors.New("malformed data URL")
		}
		payload = payload[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}

	return decodeRIFF(raw)
}

func decodeRIFF(raw []byte) (*Clip, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		haveFmt    bool
		data       []byte
	)

	// walk the chunk list; only "fmt " and "data" matter
	off := 12
	for off+8 <= len(raw) {
		id := string(raw[off : off+4])
		size := int(binary.LittleEndian.Uint32(raw[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(raw) {
			return nil, errors.New("truncated chunk")
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(raw[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported audio format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
			haveFmt = true
		case "data":
			data = raw[body : body+size]
		}

		// chunks are word-aligned
		off = body + size + (size & 1)
	}

	if !haveFmt {
		return nil, errors.New("missing fmt chunk")
	}
	if data == nil {
		return nil, errors.New("missing data chunk")
	}
	if bits != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d (want 16)", bits)
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, errors.New("invalid fmt parameters")
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[2*i : 2*i+2]))
	}

	return &Clip{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples,
	}, nil
}

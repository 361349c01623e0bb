package alert

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// The system backends shell out to whatever audio tooling the host has.
// A missing tool degrades to silence; the player's session semantics
// (ceiling timer, stop, onEnd) are unaffected.

var playerCandidates = []string{"paplay", "aplay", "afplay", "play"}
var speechCandidates = []string{"espeak-ng", "espeak", "say"}
var errNoAudioTool = errors.New("no audio playback tool on PATH")

func lookupFirst(candidates []string) string {
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path
		}
	}
	return ""
}

// SystemTone renders a short descending chirp to a temp WAV and hands it to
// the host's audio player.
type SystemTone struct {
	playerPath string
	logger     *zap.Logger
}

func NewSystemTone(logger *zap.Logger) *SystemTone {
	return &SystemTone{
		playerPath: lookupFirst(playerCandidates),
		logger:     logger,
	}
}

func (t *SystemTone) Play(volume float64) error {
	if t.playerPath == "" {
		return errNoAudioTool
	}

	clip := synthesizeChirp(volume)
	path, err := writeTempWAV(clip)
	if err != nil {
		return err
	}

	cmd := exec.Command(t.playerPath, path)
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to start audio player: %w", err)
	}

	go func() {
		_ = cmd.Wait()
		os.Remove(path)
	}()
	return nil
}

// synthesizeChirp produces ~0.5s of sine sweeping 880Hz down to 440Hz.
func synthesizeChirp(volume float64) *Clip {
	const (
		rate     = 22050
		duration = 0.5
		fStart   = 880.0
		fEnd     = 440.0
	)
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	n := int(rate * duration)
	samples := make([]int16, n)
	phase := 0.0
	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n)
		freq := fStart + (fEnd-fStart)*progress
		phase += 2 * math.Pi * freq / rate
		// linear fade-out keeps the burst from clicking
		amp := volume * (1 - progress)
		samples[i] = int16(amp * 0.8 * math.MaxInt16 * math.Sin(phase))
	}

	return &Clip{SampleRate: rate, Channels: 1, Samples: samples}
}

// SystemSpeech speaks via the host's speech tool (espeak family or say).
type SystemSpeech struct {
	speechPath string
	logger     *zap.Logger
}

func NewSystemSpeech(logger *zap.Logger) *SystemSpeech {
	return &SystemSpeech{
		speechPath: lookupFirst(speechCandidates),
		logger:     logger,
	}
}

func (s *SystemSpeech) Available() bool {
	return s.speechPath != ""
}

func (s *SystemSpeech) Speak(text, voiceURI string, volume float64, done func(err error)) (cancel func(), err error) {
	if s.speechPath == "" {
		return nil, errors.New("no speech synthesis tool on PATH")
	}

	defaultArgs := []string{"-a", fmt.Sprintf("%d", int(volume*200)), text}
	args := defaultArgs
	if voiceURI != "" {
		args = append([]string{"-v", voiceURI}, defaultArgs...)
	}

	cmd := exec.Command(s.speechPath, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start speech tool: %w", err)
	}

	var mu sync.Mutex
	canceled := false
	current := cmd

	go func() {
		runErr := cmd.Wait()
		mu.Lock()
		wasCanceled := canceled
		mu.Unlock()
		if wasCanceled {
			return
		}
		if runErr == nil {
			done(nil)
			return
		}
		if voiceURI == "" {
			s.logger.Warn("Speech tool exited with error", zap.Error(runErr))
			done(runErr)
			return
		}

		// the espeak family and say exit non-zero on an unknown -v voice;
		// retry once with the tool's default voice
		s.logger.Warn("Speech tool rejected voice, retrying with default",
			zap.String("voice", voiceURI), zap.Error(runErr))
		retry := exec.Command(s.speechPath, defaultArgs...)
		if err := retry.Start(); err != nil {
			done(fmt.Errorf("failed to start speech tool: %w", err))
			return
		}
		mu.Lock()
		if canceled {
			mu.Unlock()
			_ = retry.Process.Kill()
			return
		}
		current = retry
		mu.Unlock()

		retryErr := retry.Wait()
		mu.Lock()
		wasCanceled = canceled
		mu.Unlock()
		if wasCanceled {
			return
		}
		if retryErr != nil {
			s.logger.Warn("Speech tool exited with error", zap.Error(retryErr))
		}
		done(retryErr)
	}()

	cancel = func() {
		mu.Lock()
		already := canceled
		canceled = true
		active := current
		mu.Unlock()
		if !already && active != nil && active.Process != nil {
			_ = active.Process.Kill()
		}
	}
	return cancel, nil
}

// SystemSink plays decoded clips through the host's audio player,
// re-invoking it for looped playback.
type SystemSink struct {
	playerPath string
	logger     *zap.Logger
}

func NewSystemSink(logger *zap.Logger) *SystemSink {
	return &SystemSink{
		playerPath: lookupFirst(playerCandidates),
		logger:     logger,
	}
}

func (s *SystemSink) Play(clip *Clip, loop bool, volume float64, done func()) (stop func(), err error) {
	if s.playerPath == "" {
		return nil, errNoAudioTool
	}

	path, err := writeTempWAV(scaleClip(clip, volume))
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	stopped := false
	var current *exec.Cmd

	go func() {
		defer os.Remove(path)
		for {
			mu.Lock()
			if stopped {
				mu.Unlock()
				return
			}
			cmd := exec.Command(s.playerPath, path)
			if err := cmd.Start(); err != nil {
				mu.Unlock()
				s.logger.Warn("Failed to start audio player", zap.Error(err))
				return
			}
			current = cmd
			mu.Unlock()

			_ = cmd.Wait()

			mu.Lock()
			if stopped {
				mu.Unlock()
				return
			}
			if !loop {
				mu.Unlock()
				done()
				return
			}
			mu.Unlock()
		}
	}()

	stop = func() {
		mu.Lock()
		stopped = true
		cmd := current
		mu.Unlock()
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
	return stop, nil
}

func scaleClip(clip *Clip, volume float64) *Clip {
	if volume < 0 {
		volume = 0
	}
	if volume >= 1 {
		return clip
	}
	scaled := &Clip{
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
		Samples:    make([]int16, len(clip.Samples)),
	}
	for i, v := range clip.Samples {
		scaled.Samples[i] = int16(float64(v) * volume)
	}
	return scaled
}

func writeTempWAV(clip *Clip) (string, error) {
	f, err := os.CreateTemp("", "chimed-*.wav")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(encodeWAV(clip)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func encodeWAV(clip *Clip) []byte {
	dataLen := len(clip.Samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(clip.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(clip.SampleRate))
	byteRate := clip.SampleRate * clip.Channels * 2
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(clip.Channels*2))
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	for i, v := range clip.Samples {
		binary.LittleEndian.PutUint16(buf[44+2*i:], uint16(v))
	}
	return buf
}

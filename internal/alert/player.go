package alert

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/pkg/metrics"
)

// Player owns every sound-producing resource and enforces at-most-one
// active alert session. Start force-stops any live session before opening a
// new one; Stop silences everything from any state and is always safe.
type Player struct {
	tone   ToneSynth
	speech SpeechSynth
	sink   ClipSink
	logger *zap.Logger

	// timer granularity, shortened in tests
	loopInterval time.Duration
	durationUnit time.Duration

	mu      sync.Mutex
	gen     uint64 // session generation; stale timer callbacks check it
	playing bool
	mode    string
	onEnd   func()

	durationTimer *time.Timer
	loopStop      chan struct{}
	cancelSpeech  func()
	stopClip      func()

	cacheKey string
	cached   *Clip
}

func NewPlayer(tone ToneSynth, speech SpeechSynth, sink ClipSink, logger *zap.Logger) *Player {
	return &Player{
		tone:         tone,
		speech:       speech,
		sink:         sink,
		logger:       logger,
		loopInterval: time.Second,
		durationUnit: time.Second,
	}
}

// Ringing reports whether a session is active, and in which mode.
func (p *Player) Ringing() (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing, p.mode
}

// Start opens a new alert session. Any live session is stopped first (its
// onEnd fires), so there are never two overlapping sessions. onEnd may be
// nil; otherwise it is invoked exactly once when this session terminates,
// naturally or via Stop.
func (p *Player) Start(settings model.AlertSettings, message string, onEnd func()) {
	p.mu.Lock()
	fin := p.teardownLocked()

	p.gen++
	g := p.gen
	p.playing = true
	p.mode = settings.SoundMode
	p.onEnd = onEnd

	// hard ceiling regardless of mode or loop setting
	if settings.AudioDuration > 0 {
		d := time.Duration(settings.AudioDuration) * p.durationUnit
		p.durationTimer = time.AfterFunc(d, func() { p.endSession(g) })
	}

	switch settings.SoundMode {
	case model.SoundModeTTS:
		p.startSpeechLocked(g, settings, message)
	case model.SoundModeCustom:
		p.startCustomLocked(g, settings)
	default:
		p.startBellLocked(g, settings)
	}
	mode := p.mode
	p.mu.Unlock()

	metrics.IncrementAlertSession(mode)
	fin()
}

// Stop silences the active session from any state: tone loop, speech chain,
// clip playback and both timers are all torn down, onEnd fires at most once,
// and the player returns to idle. Calling Stop while idle is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	fin := p.teardownLocked()
	p.mu.Unlock()
	fin()
}

// ClearCache drops the cached decoded custom-audio buffer, forcing a
// re-decode on the next custom session. Used after the user replaces the
// custom sound file.
func (p *Player) ClearCache() {
	p.mu.Lock()
	p.cached = nil
	p.cacheKey = ""
	p.mu.Unlock()
}

// startBellLocked synthesizes the descending tone, re-triggering once per
// interval when looping. Tone errors are logged, never surfaced: the session
// (and its ceiling timer) stays live so stop semantics hold.
func (p *Player) startBellLocked(g uint64, settings model.AlertSettings) {
	if err := p.tone.Play(settings.Volume); err != nil {
		p.logger.Warn("Tone playback failed", zap.Error(err))
	}

	if !settings.AudioLoop {
		return
	}

	stop := make(chan struct{})
	p.loopStop = stop
	go func() {
		ticker := time.NewTicker(p.loopInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := p.tone.Play(settings.Volume); err != nil {
					p.logger.Warn("Tone playback failed", zap.Error(err))
				}
			}
		}
	}()
}

// startSpeechLocked speaks "Task due: {message}". Looping chains a new
// utterance off each natural completion rather than using an interval;
// non-loop sessions end the session when the single utterance finishes.
func (p *Player) startSpeechLocked(g uint64, settings model.AlertSettings, message string) {
	if p.speech == nil || !p.speech.Available() {
		// platform without speech synthesis: silent no-op, duration and
		// stop semantics still apply
		p.logger.Debug("Speech synthesis unavailable, alert is silent")
		return
	}

	phrase := "Task due: " + message
	p.speakLocked(g, settings, phrase)
}

func (p *Player) speakLocked(g uint64, settings model.AlertSettings, phrase string) {
	done := func(err error) {
		if err != nil {
			// a failed utterance must not chain: looping off it would
			// respawn the speech tool as fast as it can exit
			p.logger.Warn("Speech playback failed, ending session", zap.Error(err))
			p.endSession(g)
			return
		}
		if settings.AudioLoop {
			p.respeak(g, settings, phrase)
			return
		}
		p.endSession(g)
	}

	cancel, err := p.speech.Speak(phrase, settings.VoiceURI, settings.Volume, done)
	if err != nil {
		p.logger.Warn("Speech synthesis failed", zap.Error(err))
		return
	}
	p.cancelSpeech = cancel
}

func (p *Player) respeak(g uint64, settings model.AlertSettings, phrase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.gen != g {
		return
	}
	p.cancelSpeech = nil
	p.speakLocked(g, settings, phrase)
}

// startCustomLocked decodes the stored payload (cached across sessions) and
// plays it. Any decode or sink failure falls back to the bell tone so a due
// task is never silent.
func (p *Player) startCustomLocked(g uint64, settings model.AlertSettings) {
	clip, err := p.decodeCachedLocked(settings.CustomSoundData)
	if err != nil {
		p.logger.Warn("Custom audio decode failed, falling back to tone", zap.Error(err))
		metrics.IncrementAlertFallback()
		p.mode = model.SoundModeBell
		p.startBellLocked(g, settings)
		return
	}

	stop, err := p.sink.Play(clip, settings.AudioLoop, settings.Volume, func() { p.endSession(g) })
	if err != nil {
		p.logger.Warn("Custom audio playback failed, falling back to tone", zap.Error(err))
		metrics.IncrementAlertFallback()
		p.mode = model.SoundModeBell
		p.startBellLocked(g, settings)
		return
	}
	p.stopClip = stop
}

func (p *Player) decodeCachedLocked(payload string) (*Clip, error) {
	if p.cached != nil && p.cacheKey == payload {
		return p.cached, nil
	}

	clip, err := DecodeWAV(payload)
	if err != nil {
		return nil, err
	}

	p.cached = clip
	p.cacheKey = payload
	return clip, nil
}

// endSession terminates the session identified by g, if it is still the
// live one. Used by the ceiling timer and by natural completions, both of
// which can race an explicit Stop.
func (p *Player) endSession(g uint64) {
	p.mu.Lock()
	if !p.playing || p.gen != g {
		p.mu.Unlock()
		return
	}
	fin := p.teardownLocked()
	p.mu.Unlock()
	fin()
}

// teardownLocked silences the live session in place: the ceiling timer, the
// tone loop, the in-flight utterance and the clip playback are all canceled
// before it returns, so a successor session never overlaps the old audio.
// Backend cancels only flip their own state, they never call back into the
// player. The returned func fires the single onEnd invocation and must be
// called after the lock is dropped.
func (p *Player) teardownLocked() func() {
	if !p.playing {
		return func() {}
	}

	if p.durationTimer != nil {
		p.durationTimer.Stop()
	}
	if p.loopStop != nil {
		close(p.loopStop)
	}
	if p.cancelSpeech != nil {
		p.cancelSpeech()
	}
	if p.stopClip != nil {
		p.stopClip()
	}
	onEnd := p.onEnd

	p.playing = false
	p.mode = ""
	p.onEnd = nil
	p.durationTimer = nil
	p.loopStop = nil
	p.cancelSpeech = nil
	p.stopClip = nil
	p.gen++

	return func() {
		if onEnd != nil {
			onEnd()
		}
	}
}

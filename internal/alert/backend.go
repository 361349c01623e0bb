package alert

// Clip is a decoded PCM audio payload.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// ToneSynth plays one short descending tone burst. A burst is
// fire-and-forget; it is over within a second.
type ToneSynth interface {
	Play(volume float64) error
}

// SpeechSynth speaks a single utterance.
//
// done must be invoked asynchronously (never from inside Speak), exactly once
// per accepted utterance: with a nil error on natural completion, with the
// playback error when the utterance could not be produced. done must not be
// invoked after cancel is called. cancel must be safe to call more than once.
type SpeechSynth interface {
	Available() bool
	Speak(text, voiceURI string, volume float64, done func(err error)) (cancel func(), err error)
}

// ClipSink plays a decoded clip, optionally looping.
//
// done must be invoked asynchronously when non-looping playback ends
// naturally, and must not be invoked after stop is called. stop must be safe
// to call more than once.
type ClipSink interface {
	Play(clip *Clip, loop bool, volume float64, done func()) (stop func(), err error)
}

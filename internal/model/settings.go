package model

const (
	SoundModeBell   = "bell"
	SoundModeTTS    = "tts"
	SoundModeCustom = "custom"
)

// AlertSettings controls how a due-task alert sounds and for how long.
type AlertSettings struct {
	SoundMode       string  `json:"soundMode" yaml:"sound_mode"`
	Volume          float64 `json:"volume" yaml:"volume"`
	AudioDuration   int     `json:"audioDuration" yaml:"audio_duration"` // seconds; <=0 disables the cap
	AudioLoop       bool    `json:"audioLoop" yaml:"audio_loop"`
	CustomSoundData string  `json:"customSoundData,omitempty" yaml:"-"` // base64 audio payload
	VoiceURI        string  `json:"voiceURI,omitempty" yaml:"voice_uri"`
	AutoComplete    bool    `json:"autoComplete" yaml:"auto_complete"`
}

// DefaultAlertSettings returns the settings used before the user saves any.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		SoundMode:     SoundModeBell,
		Volume:        0.7,
		AudioDuration: 30,
		AudioLoop:     true,
	}
}

// ApplyDefaults normalizes a loaded settings record.
func (s *AlertSettings) ApplyDefaults() {
	switch s.SoundMode {
	case SoundModeBell, SoundModeTTS, SoundModeCustom:
	default:
		s.SoundMode = SoundModeBell
	}
	if s.Volume < 0 {
		s.Volume = 0
	}
	if s.Volume > 1 {
		s.Volume = 1
	}
}

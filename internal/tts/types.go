package tts

// EngineType represents the speech engine selection
type EngineType string

const (
	// EngineCoqui represents the Coqui TTS command line (XTTS and friends)
	EngineCoqui EngineType = "coqui"

	// EnginePiper represents the Piper offline TTS engine
	EnginePiper EngineType = "piper"

	// EngineEspeak represents espeak-ng
	EngineEspeak EngineType = "espeak"

	// EngineNone represents no engine selected
	EngineNone EngineType = ""
)

// String returns the engine name.
func (e EngineType) String() string {
	return string(e)
}

// Params holds every setting that changes the bytes an engine produces.
// Two requests with the same text but different Params must never share
// a cached artifact.
type Params struct {
	// Engine that renders the audio
	Engine EngineType

	// Model name or model file, engine specific
	Model string

	// Language code passed to multilingual models (e.g. "en")
	Language string

	// Speaker is a built-in speaker name or id
	Speaker string

	// SpeakerWAV is a reference recording for voice cloning. When set it
	// takes precedence over Speaker.
	SpeakerWAV string

	// Rate is the speaking rate in words per minute, 0 for the engine default
	Rate int
}

// Voice returns the voice identity the engine will actually use.
func (p Params) Voice() string {
	if p.SpeakerWAV != "" {
		return "wav:" + p.SpeakerWAV
	}
	return p.Speaker
}

// Request is a single piece of text to render with a given set of Params.
type Request struct {
	Text   string
	Params Params
}

// NewRequest creates a request for text rendered with params.
func NewRequest(text string, params Params) Request {
	return Request{Text: text, Params: params}
}

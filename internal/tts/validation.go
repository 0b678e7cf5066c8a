package tts

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ValidationResult contains the result of engine validation
type ValidationResult struct {
	// Engine is the validated engine type
	Engine EngineType

	// Available indicates if the engine is available and configured
	Available bool

	// Error contains any validation error
	Error error

	// Guidance provides setup instructions if validation failed
	Guidance string

	// Details contains additional validation information
	Details map[string]string
}

// DefaultBinary returns the executable an engine runs when none is configured.
func DefaultBinary(engine EngineType) string {
	switch engine {
	case EngineCoqui:
		return "tts"
	case EnginePiper:
		return "piper"
	case EngineEspeak:
		return "espeak-ng"
	default:
		return ""
	}
}

// ValidateEngineSelection normalizes an engine name from the command line or
// config file. Returns ErrNoEngineConfigured if no engine is selected.
func ValidateEngineSelection(name string) (EngineType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return EngineNone, fmt.Errorf("%w\n\nPlease specify an engine:\n  sayline --engine coqui sentences.txt   # Coqui TTS (XTTS v2)\n  sayline --engine piper sentences.txt   # Piper (offline, fast)\n  sayline --engine espeak sentences.txt  # espeak-ng", ErrNoEngineConfigured)
	}

	switch name {
	case "coqui", "xtts", "tts":
		return EngineCoqui, nil
	case "piper":
		return EnginePiper, nil
	case "espeak", "espeak-ng":
		return EngineEspeak, nil
	default:
		return EngineNone, fmt.Errorf("%w: %s\n\nSupported engines:\n  - coqui\n  - piper\n  - espeak", ErrInvalidEngine, name)
	}
}

// ValidateEngine checks that the engine binary is installed and that the
// files referenced by params exist. binary may be empty to use the default.
func ValidateEngine(engine EngineType, params Params, binary string) *ValidationResult {
	result := &ValidationResult{
		Engine:  engine,
		Details: make(map[string]string),
	}

	if binary == "" {
		binary = DefaultBinary(engine)
	}
	if binary == "" {
		result.Error = fmt.Errorf("%w: %s", ErrInvalidEngine, engine)
		result.Guidance = "Supported engines: coqui, piper, espeak"
		return result
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		result.Error = NewError(ErrorCodeEngineUnavailable, fmt.Sprintf("%s not found in PATH", binary), err)
		result.Guidance = installGuidance(engine)
		return result
	}
	result.Details["binary_path"] = path

	switch engine {
	case EnginePiper:
		if params.Model == "" {
			result.Error = fmt.Errorf("piper model path not configured")
			result.Guidance = "Set --model to a Piper .onnx voice model"
			return result
		}
		if _, err := os.Stat(params.Model); err != nil {
			result.Error = fmt.Errorf("model file not accessible: %w", err)
			result.Guidance = "Download a voice from https://github.com/rhasspy/piper/blob/master/VOICES.md"
			return result
		}
		result.Details["model_path"] = params.Model
	case EngineCoqui:
		if params.SpeakerWAV != "" {
			if _, err := os.Stat(params.SpeakerWAV); err != nil {
				result.Error = fmt.Errorf("reference wav not accessible: %w", err)
				result.Guidance = "Check the --speaker-wav path"
				return result
			}
		}
		result.Details["model"] = params.Model
	}

	result.Details["voice"] = params.Voice()
	result.Available = true
	return result
}

// installGuidance provides instructions for installing an engine
func installGuidance(engine EngineType) string {
	switch engine {
	case EngineCoqui:
		return `Coqui TTS is not installed. To install:

   pip install coqui-tts

The first run downloads the model (XTTS v2 is about 2GB).
Use --cpu if no CUDA device is available.`
	case EnginePiper:
		return `Piper TTS is not installed. To install:

1. Download Piper binary from: https://github.com/rhasspy/piper/releases
2. Extract and add to PATH
3. Download a voice model from: https://github.com/rhasspy/piper/blob/master/VOICES.md`
	case EngineEspeak:
		return `espeak-ng is not installed. To install:

   # Ubuntu/Debian
   sudo apt install espeak-ng

   # macOS (Homebrew)
   brew install espeak-ng`
	default:
		return ""
	}
}

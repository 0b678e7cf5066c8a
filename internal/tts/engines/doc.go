// Package engines runs command line speech synthesizers. Each engine writes a
// WAV file for one sentence and implements tts.Generator.
package engines

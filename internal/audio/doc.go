// Package audio plays cached WAV files. The default player shells out to
// aplay; builds with cgo can also play PCM16 WAV in process through oto.
package audio

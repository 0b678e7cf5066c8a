package reader

// Config holds reader settings read from the environment.
type Config struct {
	// Playback selects the player backend: "aplay" or "oto".
	Playback string `env:"SAYLINE_PLAYBACK" envDefault:"aplay"`

	// PlayCommand overrides the external player, e.g. "paplay" or
	// "ffplay -nodisp -autoexit".
	PlayCommand string `env:"SAYLINE_APLAY"`

	// Padding is the left margin of the status line.
	Padding int `env:"SAYLINE_PADDING" envDefault:"0"`
}

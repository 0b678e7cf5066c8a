package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgnsrekt/sayline/internal/tts"
	"github.com/dgnsrekt/sayline/internal/tts/engines"
	"github.com/dgnsrekt/sayline/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

const (
	warmupNone = "none"
	warmupAll  = "all"

	// defaultXTTSSpeaker is one of the XTTS v2 built-in speakers.
	defaultXTTSSpeaker = "Ana Florence"
)

// options is the resolved command line and config file state.
type options struct {
	Engine  tts.EngineType
	Binary  string
	Timeout time.Duration
	CPU     bool
	Params  tts.Params

	CacheDir     string
	Warmup       string
	WarmupJobs   int
	Prefetch     bool
	PrefetchJobs int64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine", string(tts.EngineCoqui))
	v.SetDefault("lang", "en")
	v.SetDefault("warmup", warmupNone)
	v.SetDefault("warmup_jobs", 1)
	v.SetDefault("prefetch_jobs", 0)
}

// loadOptions reads and validates options from v. It does not touch the
// engine binary; see tts.ValidateEngine.
func loadOptions(v *viper.Viper) (options, error) {
	engine, err := tts.ValidateEngineSelection(v.GetString("engine"))
	if err != nil {
		return options{}, err
	}

	o := options{
		Engine:       engine,
		Binary:       utils.ExpandPath(v.GetString("binary")),
		Timeout:      v.GetDuration("timeout"),
		CPU:          v.GetBool("cpu"),
		CacheDir:     utils.ExpandPath(v.GetString("cache_dir")),
		Warmup:       strings.ToLower(strings.TrimSpace(v.GetString("warmup"))),
		WarmupJobs:   v.GetInt("warmup_jobs"),
		Prefetch:     !v.GetBool("no_prefetch"),
		PrefetchJobs: v.GetInt64("prefetch_jobs"),
	}

	switch o.Warmup {
	case "":
		o.Warmup = warmupNone
	case warmupNone, warmupAll:
	default:
		return options{}, fmt.Errorf("invalid warmup %q: use %s or %s", o.Warmup, warmupNone, warmupAll)
	}
	if o.WarmupJobs < 1 {
		return options{}, fmt.Errorf("warmup-jobs must be at least 1, got %d", o.WarmupJobs)
	}
	if o.PrefetchJobs < 0 {
		return options{}, fmt.Errorf("prefetch-jobs must not be negative, got %d", o.PrefetchJobs)
	}
	if o.Timeout < 0 {
		return options{}, fmt.Errorf("timeout must not be negative, got %s", o.Timeout)
	}

	rate := v.GetInt("rate")
	if rate < 0 || rate > 1000 {
		return options{}, fmt.Errorf("rate must be between 0 and 1000 words per minute, got %d", rate)
	}

	o.Params = buildParams(engine, v.GetString("model"), v.GetString("lang"),
		v.GetString("speaker"), v.GetString("speaker_wav"), rate)

	if o.CacheDir == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return options{}, err
		}
		o.CacheDir = dir
	}
	return o, nil
}

// buildParams fills in engine defaults and drops settings the engine
// ignores, so that they never split the cache.
func buildParams(engine tts.EngineType, model, lang, speaker, speakerWAV string, rate int) tts.Params {
	p := tts.Params{
		Engine:     engine,
		Model:      strings.TrimSpace(model),
		Language:   strings.TrimSpace(lang),
		Speaker:    strings.TrimSpace(speaker),
		SpeakerWAV: utils.ExpandPath(strings.TrimSpace(speakerWAV)),
		Rate:       rate,
	}

	switch engine {
	case tts.EngineCoqui:
		if p.Model == "" {
			p.Model = engines.DefaultCoquiModel
		}
		if p.SpeakerWAV == "" && p.Speaker == "" && p.Model == engines.DefaultCoquiModel {
			p.Speaker = defaultXTTSSpeaker
		}
		if p.SpeakerWAV != "" {
			p.Speaker = ""
		}
		p.Rate = 0
	case tts.EnginePiper:
		p.Model = utils.ExpandPath(p.Model)
		p.Language = ""
		p.SpeakerWAV = ""
	case tts.EngineEspeak:
		p.Model = ""
		p.SpeakerWAV = ""
		// An explicit voice replaces the language voice.
		if p.Speaker != "" {
			p.Language = ""
		}
	}
	return p
}

func defaultCacheDir() (string, error) {
	dir, err := gap.NewScope(gap.User, "sayline").CacheDir()
	if err != nil {
		return "", fmt.Errorf("could not find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

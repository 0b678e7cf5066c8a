// Package main provides the entry point for the sayline CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/sayline/internal/audio"
	"github.com/dgnsrekt/sayline/internal/cache"
	"github.com/dgnsrekt/sayline/internal/reader"
	"github.com/dgnsrekt/sayline/internal/tts"
	"github.com/dgnsrekt/sayline/internal/tts/engines"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	opts       options

	rootCmd = &cobra.Command{
		Use:   "sayline FILE",
		Short: "Read a text file aloud, one sentence at a time",
		Long: paragraph(
			fmt.Sprintf("\nStep through a text file with the arrow keys and %s.\nRendered audio is cached, so every sentence is synthesized once.", keyword("speak each line on demand")),
		),
		Example:          paragraph("sayline notes.txt\nsayline --lang fr --speaker-wav me.wav notes.txt\nsayline --engine piper --model ~/voices/en_US-lessac-medium.onnx notes.txt"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"txt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOptions()
		},
		RunE: execute,
	}
)

func validateOptions() error {
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	var err error
	opts, err = loadOptions(viper.GetViper())
	return err
}

func execute(cmd *cobra.Command, args []string) error {
	sentences, err := reader.LoadSentences(args[0])
	if err != nil {
		return err
	}

	// Read environment to get playback settings
	cfg, err := env.ParseAs[reader.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	result := tts.ValidateEngine(opts.Engine, opts.Params, opts.Binary)
	if !result.Available {
		if result.Guidance != "" {
			return fmt.Errorf("%w\n\n%s", result.Error, result.Guidance)
		}
		return result.Error
	}
	log.Debug("Engine validated", "engine", opts.Engine, "details", result.Details)

	generator, err := engines.New(opts.Engine, engines.Options{
		Binary:  opts.Binary,
		Timeout: opts.Timeout,
		CPU:     opts.CPU,
		Logger:  log.Default(),
	})
	if err != nil {
		return err
	}

	store, err := cache.NewStore(opts.CacheDir, cache.DefaultExt)
	if err != nil {
		return err
	}
	coord := cache.NewCoordinator(store, generator)

	player, err := audio.New(cfg.Playback, cfg.PlayCommand)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	printHeader(out, opts)

	reqs := make([]tts.Request, len(sentences))
	for i, s := range sentences {
		reqs[i] = tts.NewRequest(s, opts.Params)
	}
	if opts.Warmup == warmupAll {
		if err := runWarmup(ctx, out, coord, reqs, opts.WarmupJobs); err != nil {
			return err
		}
	}

	var prefetcher *cache.Prefetcher
	if opts.Prefetch {
		prefetcher = cache.NewPrefetcher(coord, cache.PrefetchConfig{
			MaxConcurrent: opts.PrefetchJobs,
			Logger:        log.Default(),
		})
	}

	terminal := reader.NewTerminal()
	if !terminal.IsTerminal() {
		return errors.New("sayline needs an interactive terminal")
	}

	r, err := reader.New(reader.Options{
		Sentences:   sentences,
		Params:      opts.Params,
		Coordinator: coord,
		Prefetcher:  prefetcher,
		Player:      player,
		Keys:        terminal,
		Out:         out,
		Width:       terminal.Width,
		Padding:     cfg.Padding,
		Logger:      log.Default(),
	})
	if err != nil {
		return err
	}

	runErr := r.Run(ctx)

	stats := coord.Stats()
	if prefetcher != nil {
		stats = prefetcher.Stats()
	}
	logStats(stats, store)

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().Bool("debug", false, "write debug messages to the log file")

	// Engine
	rootCmd.Flags().StringP("engine", "e", string(tts.EngineCoqui), "speech engine: coqui, piper or espeak")
	rootCmd.Flags().String("binary", "", "engine executable (default: tts, piper or espeak-ng)")
	rootCmd.Flags().StringP("model", "m", "", fmt.Sprintf("model name or file (coqui default %s)", engines.DefaultCoquiModel))
	rootCmd.Flags().StringP("lang", "l", "en", "language code")
	rootCmd.Flags().StringP("speaker", "s", "", fmt.Sprintf("built-in speaker name or id (XTTS default %q)", defaultXTTSSpeaker))
	rootCmd.Flags().String("speaker-wav", "", "reference recording for voice cloning (coqui)")
	rootCmd.Flags().IntP("rate", "r", 0, "speaking rate in words per minute (piper, espeak)")
	rootCmd.Flags().Bool("cpu", false, "force CPU inference (coqui)")
	rootCmd.Flags().Duration("timeout", 0, "maximum time for one sentence (default per engine)")

	// Cache
	rootCmd.Flags().String("cache-dir", "", "audio cache directory (default in the user cache dir)")
	rootCmd.Flags().String("warmup", warmupNone, "render sentences before starting: none or all")
	rootCmd.Flags().Int("warmup-jobs", 1, "concurrent generations during warm-up")
	rootCmd.Flags().Bool("no-prefetch", false, "do not render the next sentence in the background")
	rootCmd.Flags().Int64("prefetch-jobs", 0, "concurrent background generations (0 for no limit)")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("binary", rootCmd.Flags().Lookup("binary"))
	_ = viper.BindPFlag("model", rootCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("lang", rootCmd.Flags().Lookup("lang"))
	_ = viper.BindPFlag("speaker", rootCmd.Flags().Lookup("speaker"))
	_ = viper.BindPFlag("speaker_wav", rootCmd.Flags().Lookup("speaker-wav"))
	_ = viper.BindPFlag("rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("cpu", rootCmd.Flags().Lookup("cpu"))
	_ = viper.BindPFlag("timeout", rootCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("cache_dir", rootCmd.Flags().Lookup("cache-dir"))
	_ = viper.BindPFlag("warmup", rootCmd.Flags().Lookup("warmup"))
	_ = viper.BindPFlag("warmup_jobs", rootCmd.Flags().Lookup("warmup-jobs"))
	_ = viper.BindPFlag("no_prefetch", rootCmd.Flags().Lookup("no-prefetch"))
	_ = viper.BindPFlag("prefetch_jobs", rootCmd.Flags().Lookup("prefetch-jobs"))

	setDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "sayline")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "sayline")}, dirs...)
	}

	if c := os.Getenv("SAYLINE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("sayline")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("sayline")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "sayline.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

package main

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/models"
	"github.com/go-go-golems/branchcanvas/pkg/responder"
)

var rootCmd = &cobra.Command{
	Use:   "branchcanvas",
	Short: "branchcanvas grows branching conversations on an infinite canvas",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()
	},
	SilenceUsage: true,
}

func initLogger() {
	logLevel := viper.GetString("log-level")
	verbose := viper.GetBool("verbose")
	if verbose && logLevel != "trace" {
		logLevel = "debug"
	}

	err := InitLogger(&logConfig{
		Level:      logLevel,
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
	cobra.CheckErr(err)
}

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
	// Quiet drops the stderr writer, for full-screen programs.
	Quiet bool
}

func initConfig(rootCmd *cobra.Command, configPath string) error {
	viper.SetEnvPrefix("branchcanvas")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.branchcanvas")

		xdgConfigPath, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(xdgConfigPath + "/branchcanvas")
		}
	}

	err := viper.ReadInConfig()
	// if the file does not exist, continue normally
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Config file not found; ignore error
	} else if err != nil {
		return err
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err = viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}

	initLogger()

	log.Debug().
		Str("config", viper.ConfigFileUsed()).
		Msg("Loaded configuration")

	return nil
}

func InitLogger(config *logConfig) error {
	if config.WithCaller {
		log.Logger = log.With().Caller().Logger()
	}
	// default is json
	var logWriter io.Writer
	switch {
	case config.Quiet:
		logWriter = io.Discard
	case config.LogFormat == "text":
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	default:
		logWriter = os.Stderr
	}

	if config.LogFile != "" {
		fileWriter := zerolog.ConsoleWriter{
			NoColor: true,
			Out: &lumberjack.Logger{
				Filename:   config.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28,    //days
				Compress:   false, // disabled by default
			},
		}
		if config.Quiet {
			logWriter = fileWriter
		} else {
			logWriter = io.MultiWriter(logWriter, fileWriter)
		}
	}

	log.Logger = log.Output(logWriter)

	switch config.Level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	default:
		return errors.Errorf("unknown log level %q", config.Level)
	}

	return nil
}

// loadCanvasConfig overlays the `canvas:` section of the config file on the defaults.
func loadCanvasConfig() (canvas.Config, error) {
	cfg := canvas.DefaultConfig()
	if viper.IsSet("canvas") {
		if err := viper.UnmarshalKey("canvas", &cfg); err != nil {
			return cfg, errors.Wrap(err, "could not read canvas config")
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadCatalog() (*models.Catalog, error) {
	path := viper.GetString("models")
	if path == "" {
		return models.Default(), nil
	}
	return models.Load(path)
}

func newResponder(catalog *models.Catalog) *responder.Simulated {
	options := []responder.SimulatedOption{
		responder.WithDelay(viper.GetDuration("reply-delay")),
	}
	if seed := viper.GetUint64("seed"); seed != 0 {
		options = append(options, responder.WithSeed(seed))
	}
	return responder.NewSimulated(catalog, options...)
}

func main() {
	rootCmd.PersistentFlags().Bool("with-caller", false, "Log caller")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (json, text)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (default: stderr)")

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.branchcanvas/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")

	rootCmd.PersistentFlags().String("models", "", "Model catalog YAML (default: built-in catalog)")
	rootCmd.PersistentFlags().Duration("reply-delay", responder.DefaultDelay, "Delay of simulated replies")
	rootCmd.PersistentFlags().Uint64("seed", 0, "Seed for simulated replies (0 picks one at random)")

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--config" && len(os.Args) > idx+1 {
			configFile = os.Args[idx+1]
		}
	}

	err := initConfig(rootCmd, configFile)
	cobra.CheckErr(err)

	rootCmd.AddCommand(
		newTUICommand(),
		newRunCommand(),
		newServeCommand(),
		newSchemaCommand(),
		newModelsCommand(),
		newConfigCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

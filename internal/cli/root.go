package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/medlens/internal/logging"
	"github.com/ppiankov/medlens/internal/metrics"
	"github.com/ppiankov/medlens/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Version is the medlens release
const Version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "medlens",
	Short: "medlens - symptom triage and clinical document extraction (not a diagnosis)",
	Long: `medlens analyzes free-text symptom descriptions and OCR'd clinical
documents.

For symptoms it estimates a severity, ranks dictionary conditions whose
patterns the description covers, falls back to keyword matching when
nothing ranks, and attaches fixed advisory text.

For documents it pulls out the doctor, date, diagnosis, medications,
vitals and follow-up instructions with independent field extractors.

medlens never diagnoses. Every report says so.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number for medlens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "medlens %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.medlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (info-level logs)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")
	rootCmd.PersistentFlags().String("dictionary", "", "dictionary YAML file (default: built-in)")
	rootCmd.PersistentFlags().String("metrics-textfile", "", "write Prometheus metrics to this file on exit")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("dictionary.path", rootCmd.PersistentFlags().Lookup("dictionary"))
	_ = viper.BindPFlag("metrics.textfile", rootCmd.PersistentFlags().Lookup("metrics-textfile"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig seeds viper with the defaults, then layers the config file
// and MEDLENS_* environment variables on top
func initConfig() {
	viper.SetConfigType("yaml")
	if data, err := yaml.Marshal(model.DefaultConfig()); err == nil {
		_ = viper.ReadConfig(bytes.NewReader(data))
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".medlens"))
		viper.SetConfigName("config")
	}

	// MEDLENS_CACHE_DISK_DIR -> cache.disk_dir
	viper.SetEnvPrefix("MEDLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The API key never lives in the defaults, so bind it explicitly
	_ = viper.BindEnv("llm.api_key", "MEDLENS_LLM_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("llm.base_url", "MEDLENS_LLM_BASE_URL", "OLLAMA_BASE_URL")

	if err := viper.MergeInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}

// loadConfig resolves the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if cfg.Output.Verbose && cfg.Log.Level == "warn" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}

// runtimeEnv holds what every command needs besides its own flags
type runtimeEnv struct {
	cfg     *model.Config
	logger  *zap.Logger
	metrics *metrics.Collector
}

func newRuntime() (*runtimeEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Info("using config file", zap.String("path", used))
	}

	env := &runtimeEnv{cfg: cfg, logger: logger}
	if cfg.Metrics.Textfile != "" {
		env.metrics = metrics.NewCollector()
	}
	return env, nil
}

// close flushes metrics and logs
func (e *runtimeEnv) close() {
	if err := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
		e.logger.Warn("failed to write metrics textfile", zap.String("path", e.cfg.Metrics.Textfile), zap.Error(err))
	}
	_ = e.logger.Sync()
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/medlens/internal/dictionary"
	"github.com/ppiankov/medlens/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var withDictionary bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage medlens configuration",
	Long: `Manage medlens configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (MEDLENS_*)
3. Config file (~/.medlens/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, env vars and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		stderr := cmd.ErrOrStderr()
		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, string(yamlData))
		if cfg.LLM.APIKey != "" {
			fmt.Fprintln(out, "# llm.api_key is set (hidden)")
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long: `Create a default configuration file at ~/.medlens/config.yaml with all
available options. With --dictionary, also write the built-in dictionary
to ~/.medlens/dictionary.yaml as a starting point for customization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}
		configDir := filepath.Join(home, ".medlens")

		configPath, err := writeDefaultConfig(configDir, withDictionary)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", configPath)
		if withDictionary {
			fmt.Fprintf(out, "✓ Created dictionary: %s\n", filepath.Join(configDir, "dictionary.yaml"))
		}
		fmt.Fprintf(out, "\nTo view the configuration:\n  medlens config show\n")
		fmt.Fprintf(out, "\nTo customize, edit the file with your preferred editor:\n  $EDITOR %s\n\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&withDictionary, "dictionary", false, "also write the built-in dictionary")
}

// writeDefaultConfig writes config.yaml (and optionally dictionary.yaml)
// into dir, refusing to overwrite an existing config
func writeDefaultConfig(dir string, withDict bool) (path string, err error) {
	path = filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s\nUse 'medlens config show' to view it, or delete it first to recreate", path)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating config directory: %w", err)
	}

	cfg := model.DefaultConfig()
	if withDict {
		dictPath := filepath.Join(dir, "dictionary.yaml")
		data, err := dictionary.Default().Marshal()
		if err != nil {
			return "", fmt.Errorf("error marshaling dictionary: %w", err)
		}
		if err := os.WriteFile(dictPath, data, 0o644); err != nil {
			return "", fmt.Errorf("error writing dictionary: %w", err)
		}
		cfg.Dictionary.Path = dictPath
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("error marshaling config: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	// Helper for writing with error checking
	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# medlens Configuration File\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (MEDLENS_*, e.g. MEDLENS_CACHE_DISK_DIR)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n\n")
	printf("%s", yamlData)
	printf("\n# API Keys (recommended to use environment variables instead):\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	printf("#   export OLLAMA_BASE_URL=http://localhost:11434\n")
	if err != nil {
		return "", fmt.Errorf("error writing config: %w", err)
	}

	return path, nil
}

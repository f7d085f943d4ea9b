package cmd

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "cv-matcher"
)

type Config struct {
	TopK      int              `mapstructure:"top-k"`
	Output    string           `mapstructure:"output"`
	Embedding *EmbeddingConfig `mapstructure:"embedding"`
	AI        *AIConfig        `mapstructure:"ai"`
	Tracing   *TracingConfig   `mapstructure:"tracing"`
}

type EmbeddingConfig struct {
	// Provider is one of onnx, gemini, openrouter.
	Provider  string      `mapstructure:"provider"`
	Model     string      `mapstructure:"model"`
	BaseURL   string      `mapstructure:"base-url"`
	BatchSize int         `mapstructure:"batch-size"`
	ONNX      *ONNXConfig `mapstructure:"onnx"`
}

type ONNXConfig struct {
	Library   string `mapstructure:"library"`
	Model     string `mapstructure:"model"`
	Tokenizer string `mapstructure:"tokenizer"`
	MaxSeqLen int    `mapstructure:"max-seq-len"`
}

type AIConfig struct {
	Enabled           bool              `mapstructure:"enabled"`
	Provider          string            `mapstructure:"provider"`
	Model             string            `mapstructure:"model"`
	Temperature       float32           `mapstructure:"temperature"`
	MaxTokens         int               `mapstructure:"max-tokens"`
	ResumeBudget      int               `mapstructure:"resume-budget"`
	Timeout           string            `mapstructure:"timeout"`
	Concurrency       int               `mapstructure:"concurrency"`
	RequestsPerSecond float64           `mapstructure:"requests-per-second"`
	MaxLogLength      int               `mapstructure:"max-log-length"`
	Gemini            *GeminiConfig     `mapstructure:"gemini"`
	OpenRouter        *OpenRouterConfig `mapstructure:"openrouter"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
}

type OpenRouterConfig struct {
	BaseURL    string `mapstructure:"base-url"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp-endpoint"`
	SampleRate   float64 `mapstructure:"sample-rate"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-matcher ranks resumes against a job description and explains the best matches",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"ai.gemini.api-key-file":     "GEMINI_API_KEY_FILE",
		"ai.openrouter.api-key-file": "OPENROUTER_API_KEY_FILE",
		"tracing.otlp-endpoint":      "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("top-k", 10)
	v.SetDefault("output", "text")
	v.SetDefault("embedding.provider", "onnx")
	v.SetDefault("embedding.onnx.model", "models/all-MiniLM-L6-v2")
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.provider", "openrouter")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max-tokens", 150)
	v.SetDefault("ai.resume-budget", 2500)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.concurrency", 1)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("tracing.sample-rate", 1.0)
}

func initConfig() {
	// Environment from .env is optional and never overrides the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	// Config is needed only for the match command.
	if matchCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Without an explicit --config the file is optional: defaults and flags are enough.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI != nil {
		config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	}
	if config.Embedding != nil {
		config.Embedding.Provider = strings.ToLower(strings.TrimSpace(config.Embedding.Provider))
	}

	return config, nil
}

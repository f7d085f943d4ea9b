package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/extract"
	"github.com/spigell/cv-matcher/internal/intake"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/observability"
	"github.com/spigell/cv-matcher/internal/render"
)

const stdinPath = "-"

var errNoCandidateSource = errors.New("no candidates given: use --resume, --candidates or --paste")

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank resumes against a job description",
	Example: `  cv-matcher match --job-file job.txt --resume ./resumes
  cv-matcher match --job "Python backend developer" --candidates candidates.yaml -o json
  cv-matcher match --paste 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	addMatchFlags(matchCmd)

	viper.BindPFlag("top-k", matchCmd.Flags().Lookup("top-k"))
	viper.BindPFlag("output", matchCmd.Flags().Lookup("output"))
}

func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().String("job", "", "job description text")
	cmd.Flags().String("job-file", "", "file with the job description (pdf, docx, txt, md) or - for stdin")
	cmd.Flags().StringArrayP("resume", "r", nil, "resume file or directory of resumes, repeatable")
	cmd.Flags().StringP("candidates", "c", "", "YAML or JSON file with {name, text} candidates")
	cmd.Flags().Int("paste", 0, "number of candidates to paste interactively")
	cmd.Flags().IntP("top-k", "k", 10, "number of best matches to show")
	cmd.Flags().StringP("output", "o", "text", "output format: text, json or yaml")
	cmd.Flags().Bool("no-ai", false, "skip fit summaries")
}

func match(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cv-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	format, err := render.ParseFormat(config.Output)
	if err != nil {
		return err
	}

	if noAI, _ := cmd.Flags().GetBool("no-ai"); noAI && config.AI != nil {
		config.AI.Enabled = false
	}

	tracing, err := observability.InitTracing(ctx, tracingConfig(config))
	if err != nil {
		logger.Warn("tracing is disabled", zap.Error(err))
	} else {
		defer tracing.Shutdown(context.Background())
	}

	pasted, _ := cmd.Flags().GetInt("paste")
	pairs, err := pasteCandidates(pasted)
	if err != nil {
		return err
	}

	job, err := readJob(cmd, pasted > 0)
	if err != nil {
		return err
	}

	sources, err := candidateSources(cmd, pairs)
	if err != nil {
		return err
	}

	inputs, err := intake.Run(ctx, intake.Deps{Logger: logger}, sources...)
	if err != nil {
		return fmt.Errorf("collecting candidates: %w", err)
	}

	handle, err := newEmbeddingHandle(config, logger)
	if err != nil {
		return err
	}
	defer handle.Close()

	summarizer, err := newSummarizer(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("fit summaries are disabled", zap.Error(err))
	}

	concurrency := 1
	if config.AI != nil {
		concurrency = config.AI.Concurrency
	}

	matcher := matching.New(matching.Config{TopK: config.TopK, Concurrency: concurrency}, matching.Deps{
		Embedder:   handle,
		Summarizer: summarizer,
		Logger:     logger,
		Observer: func(_, to matching.Stage) {
			logger.Info("stage", zap.String("name", string(to)))
		},
	})

	ranking, err := matcher.Match(ctx, matching.Query{Text: job}, inputs)
	if err != nil {
		return err
	}

	return render.Write(cmd.OutOrStdout(), format, ranking)
}

func tracingConfig(config *Config) *observability.TracingConfig {
	if config.Tracing == nil {
		return nil
	}
	return &observability.TracingConfig{
		ServiceName:    app,
		ServiceVersion: version,
		OTLPEndpoint:   config.Tracing.OTLPEndpoint,
		SampleRate:     config.Tracing.SampleRate,
	}
}

// readJob resolves the job description from --job, --job-file or, when
// interactive, a prompt.
func readJob(cmd *cobra.Command, interactive bool) (string, error) {
	text, _ := cmd.Flags().GetString("job")
	path, _ := cmd.Flags().GetString("job-file")

	switch {
	case strings.TrimSpace(text) != "" && path != "":
		return "", errors.New("--job and --job-file are mutually exclusive")
	case strings.TrimSpace(text) != "":
		return text, nil
	case path == stdinPath:
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read job description from stdin: %w", err)
		}
		return string(raw), nil
	case path != "":
		text, err := extract.Text(path)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		return text, nil
	case interactive:
		return promptJob()
	default:
		// Empty descriptions are rejected by the matcher.
		return "", nil
	}
}

func candidateSources(cmd *cobra.Command, pairs []intake.Pair) ([]intake.Source, error) {
	var sources []intake.Source

	if resumes, _ := cmd.Flags().GetStringArray("resume"); len(resumes) > 0 {
		sources = append(sources, intake.NewFiles(resumes...))
	}
	if manifest, _ := cmd.Flags().GetString("candidates"); manifest != "" {
		sources = append(sources, intake.NewManifest(manifest))
	}
	if len(pairs) > 0 {
		sources = append(sources, intake.NewPasted(pairs))
	}

	if len(sources) == 0 {
		return nil, errNoCandidateSource
	}
	return sources, nil
}

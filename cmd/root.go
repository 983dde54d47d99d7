package cmd

import (
	"context"
	"errors"
	"fmt"
	u "net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/partget/internal/config"
	partgethttp "github.com/tanq16/partget/internal/downloaders/http"
	"github.com/tanq16/partget/internal/output"
	"github.com/tanq16/partget/internal/scheduler"
	"github.com/tanq16/partget/internal/utils"
)

var (
	outputPath       string
	minChunkSize     string
	maxChunkSize     string
	bufferSize       string
	connectTimeout   time.Duration
	progressInterval time.Duration
	userAgent        string
	tempDir          string
	logFile          string
	configPath       string
	debug            bool
)

var PartgetVersion = "dev"

// errDownloadFailed is returned after the failure message has already been printed.
var errDownloadFailed = errors.New("download failed")

var rootCmd = &cobra.Command{
	Use:           "partget [URL] [-o OUTPUT_PATH]",
	Short:         "partget downloads a file over HTTP in concurrent byte-range parts",
	Version:       PartgetVersion,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, args[0])
	},
}

func runDownload(cmd *cobra.Command, url string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return downloadFailed(err)
	}
	closer, err := utils.InitLogger(cfg.Debug, cfg.LogFile)
	if err != nil {
		return downloadFailed(fmt.Errorf("error opening log file: %w", err))
	}
	defer closer.Close()

	if _, err := u.ParseRequestURI(url); err != nil {
		return downloadFailed(fmt.Errorf("invalid URL format: %w", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := scheduler.Run(ctx, newJob(url, cfg), &partgethttp.HTTPDownloader{})
	if err != nil || !result.Saved {
		log.Debug().Str("op", "cmd/root").Err(err).Msg("download failed")
		return downloadFailed(err)
	}
	output.PrintSuccess("File download completed.")
	output.PrintDetail(result.OutputPath)
	return nil
}

// downloadFailed prints the cause, if any, then the final failure line.
func downloadFailed(err error) error {
	if err != nil {
		output.PrintError(err.Error())
	}
	output.PrintError("File download failed!")
	return errDownloadFailed
}

func Execute() {
	rootCmd.SetArgs(normalizeLegacyArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errDownloadFailed) {
			output.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file or directory (name inferred from the URL if not provided)")
	rootCmd.Flags().StringVar(&minChunkSize, "min-chunk-size", "", "Minimum part size (eg. 10MiB, 1048576); also -min")
	rootCmd.Flags().StringVar(&maxChunkSize, "max-chunk-size", "", "Maximum part size (eg. 100MiB); also -max")
	rootCmd.Flags().StringVar(&bufferSize, "buffer-size", "", "Read buffer size per part (eg. 10MiB)")
	rootCmd.Flags().DurationVarP(&connectTimeout, "connect-timeout", "t", utils.DefaultConnectTimeout, "Connection timeout (eg. 30s, 8m)")
	rootCmd.Flags().DurationVar(&progressInterval, "progress-interval", utils.DefaultProgressInterval, "Progress refresh interval")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent (\"randomize\" picks a browser agent)")
	rootCmd.Flags().StringVar(&tempDir, "temp-dir", "", "Directory for part files (default .partget-temp beside the output)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newCleanCmd())
}

// loadConfig layers explicitly set flags over the file and environment settings.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	sizes := []struct {
		name   string
		value  string
		target *int64
	}{
		{"min-chunk-size", minChunkSize, &cfg.MinChunkSize},
		{"max-chunk-size", maxChunkSize, &cfg.MaxChunkSize},
		{"buffer-size", bufferSize, &cfg.BufferSize},
	}
	for _, size := range sizes {
		if !flags.Changed(size.name) {
			continue
		}
		parsed, err := utils.ParseSize(size.value)
		if err != nil {
			return cfg, fmt.Errorf("--%s: %w", size.name, err)
		}
		*size.target = parsed
	}
	if flags.Changed("connect-timeout") {
		cfg.ConnectTimeout = connectTimeout
	}
	if flags.Changed("progress-interval") {
		cfg.ProgressInterval = progressInterval
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = userAgent
	}
	if flags.Changed("temp-dir") {
		cfg.TempDir = tempDir
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}
	if cfg.UserAgent == utils.ToolUserAgent {
		cfg.UserAgent = fmt.Sprintf("%s/%s", utils.ToolUserAgent, PartgetVersion)
	}
	return cfg, cfg.Validate()
}

func newJob(url string, cfg config.Config) *utils.PartgetJob {
	return &utils.PartgetJob{
		URL:              url,
		OutputPath:       outputPath,
		TempRoot:         cfg.TempDir,
		MinChunkSize:     cfg.MinChunkSize,
		MaxChunkSize:     cfg.MaxChunkSize,
		BufferSize:       int(cfg.BufferSize),
		ProgressInterval: cfg.ProgressInterval,
		HTTPClientConfig: cfg.HTTPClientConfig(),
	}
}

// normalizeLegacyArgs accepts the single-dash -min/-max spellings, which pflag cannot
// express as shorthands, by rewriting them to their long forms.
func normalizeLegacyArgs(args []string) []string {
	legacy := map[string]string{
		"-min": "--min-chunk-size",
		"-max": "--max-chunk-size",
	}
	normalized := make([]string, 0, len(args))
	for index, arg := range args {
		if arg == "--" {
			normalized = append(normalized, args[index:]...)
			break
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if long, ok := legacy[name]; ok {
			if hasValue {
				arg = long + "=" + value
			} else {
				arg = long
			}
		}
		normalized = append(normalized, arg)
	}
	return normalized
}

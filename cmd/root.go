package cmd

import (
	"context"
	"errors"
	"fmt"
	u "net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/dlspeed/internal/output"
	"github.com/tanq16/dlspeed/internal/scheduler"
	"github.com/tanq16/dlspeed/internal/transfer"
	"github.com/tanq16/dlspeed/internal/urllist"
	"github.com/tanq16/dlspeed/internal/utils"
)

var (
	urlListFile    string
	outputFormat   string
	sortBySpeed    bool
	progressMode   string
	s3Profile      string
	timeout        time.Duration
	kaTimeout      time.Duration
	maxDuration    time.Duration
	idleTimeout    time.Duration
	chunkSize      int
	sampleWindow   time.Duration
	sampleCapacity int
	userAgent      string
	proxyURL       string
	proxyUsername  string
	proxyPassword  string
	headers        []string
	bearerToken    string
	largeBuffers   bool
	debug          bool
	logFile        string
)

var DlspeedVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "dlspeed [flags] [URL...]",
	Short: "dlspeed measures HTTP(S) and S3 download throughput",
	Long: `dlspeed downloads each URL in turn, discards the body and reports the
achieved throughput. URLs come from arguments or from --file, a text list
("URL" or "METHOD URL" per line) or a YAML list.`,
	Version:       DlspeedVersion,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		closer, err := utils.InitLogger(debug, logFile)
		if err != nil {
			return err
		}
		defer closer.Close()

		requests, err := loadRequests(args)
		if err != nil {
			return err
		}
		rep, err := newReporter(progressMode)
		if err != nil {
			return err
		}
		summary := output.SummaryOptions{Format: outputFormat, SortBySpeed: sortBySpeed}
		if summary.Format != output.FormatTable && summary.Format != output.FormatYAML {
			return &utils.ConfigError{Source: "--format", Err: fmt.Errorf("unknown output format %q", summary.Format)}
		}

		runner := transfer.NewRunner(transfer.Options{
			ChunkSize:      chunkSize,
			MaxDuration:    maxDuration,
			IdleTimeout:    idleTimeout,
			SampleWindow:   sampleWindow,
			SampleCapacity: sampleCapacity,
		})
		httpSource := transfer.NewHTTPSource(utils.NewHTTPClient(httpClientConfig()))
		runner.Register("http", httpSource)
		runner.Register("https", httpSource)
		runner.Register("s3", transfer.NewS3SourceFromProfile(s3Profile))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		run := scheduler.Run(ctx, requests, runner, rep)
		if ctx.Err() != nil {
			log.Warn().Str("op", "cmd/root").Msg("run interrupted, remaining transfers skipped")
		}
		return output.WriteSummary(cmd.OutOrStdout(), run, summary)
	},
}

func loadRequests(args []string) ([]utils.Request, error) {
	if urlListFile != "" && len(args) > 0 {
		return nil, &utils.ConfigError{Err: errors.New("cannot specify url arguments and --file together, choose one")}
	}
	if urlListFile != "" {
		return urllist.ReadFile(urlListFile)
	}
	return urllist.FromArgs(args)
}

func newReporter(mode string) (output.Reporter, error) {
	switch mode {
	case "bar":
		return output.NewTerminal(output.TerminalOptions{
			Output:      os.Stderr,
			Interactive: output.IsTerminal(os.Stderr),
		}), nil
	case "log":
		// progress events are Info; the console default would hide them
		if !debug {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		return output.NewLog(utils.GetLogger("progress"), time.Second), nil
	case "none":
		return output.Discard, nil
	default:
		return nil, &utils.ConfigError{Source: "--progress", Err: fmt.Errorf("unknown progress mode %q", mode)}
	}
}

func httpClientConfig() utils.HTTPClientConfig {
	if userAgent == "randomize" {
		userAgent = utils.GetRandomUserAgent()
	}
	// Check if proxy URL contains auth
	parsedProxy, err := u.Parse(proxyURL)
	if err == nil && parsedProxy.User != nil && proxyUsername == "" {
		proxyUsername = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			proxyPassword = password
		}
		// Remove auth from URL to send in clientConfig
		parsedProxy.User = nil
		proxyURL = parsedProxy.String()
	}
	return utils.HTTPClientConfig{
		Timeout:            timeout,
		KATimeout:          kaTimeout,
		ProxyURL:           proxyURL,
		ProxyUsername:      proxyUsername,
		ProxyPassword:      proxyPassword,
		UserAgent:          userAgent,
		Headers:            utils.ParseHeaderArgs(headers),
		BearerToken:        bearerToken,
		LargeSocketBuffers: largeBuffers,
	}
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&urlListFile, "file", "f", "", "Path to a URL list (text, or YAML with .yaml/.yml extension)")
	rootCmd.Flags().StringVar(&outputFormat, "format", output.FormatTable, "Summary format (table, yaml)")
	rootCmd.Flags().BoolVar(&sortBySpeed, "sort", false, "Sort the summary by speed, fastest first")
	rootCmd.Flags().StringVar(&progressMode, "progress", "bar", "Progress display (bar, log, none)")
	rootCmd.Flags().StringVar(&s3Profile, "s3-profile", "", "AWS profile used for s3:// URLs")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", utils.DefaultResponseTimeout, "Time to wait for response headers (eg. 5s, 1m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", utils.DefaultKATimeout, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.Flags().DurationVar(&maxDuration, "max-duration", utils.DefaultMaxDuration, "Maximum duration of a single transfer (0 disables)")
	rootCmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 0, "Abort a transfer when no bytes arrive for this long (0 disables)")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", utils.DefaultChunkSize, "Read buffer size in bytes")
	rootCmd.Flags().DurationVar(&sampleWindow, "sample-window", utils.DefaultSampleWindow, "Time window of the live speed estimate")
	rootCmd.Flags().IntVar(&sampleCapacity, "sample-capacity", utils.DefaultSampleCapacity, "Maximum samples kept for the live speed estimate")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent (\"randomize\" picks a browser agent)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.Flags().StringVar(&bearerToken, "bearer-token", "", "Bearer token sent with every HTTP request")
	rootCmd.Flags().BoolVar(&largeBuffers, "large-buffers", false, "Request large socket receive buffers")

	// flags without shorthand
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr (bare flag uses "+utils.LogFile+")")
	rootCmd.Flags().Lookup("log-file").NoOptDefVal = utils.LogFile
}

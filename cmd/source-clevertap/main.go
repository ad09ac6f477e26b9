// Command source-clevertap extracts CleverTap user profiles.
//
// It speaks a line protocol on stdout: every output line is a JSON message
// (SPEC, CONNECTION_STATUS, CATALOG or RECORD). Logs go to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/clevertap-source/pkg/client"
	"github.com/Sternrassler/clevertap-source/pkg/config"
	"github.com/Sternrassler/clevertap-source/pkg/connector"
	"github.com/Sternrassler/clevertap-source/pkg/logging"
	"github.com/Sternrassler/clevertap-source/pkg/metrics"
	"github.com/Sternrassler/clevertap-source/pkg/pagination"
	"github.com/Sternrassler/clevertap-source/pkg/sink"
)

var version = "0.1.0"

// Sink names accepted by --sink.
const (
	sinkStdout = "stdout"
	sinkRedis  = "redis"
)

// app carries the process I/O so commands can be run from tests.
type app struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	// extra is appended to the options of every connector call.
	extra []connector.Option

	logger zerolog.Logger
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr, now: time.Now}
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	var logLevel string
	var pretty bool

	root := &cobra.Command{
		Use:           "source-clevertap",
		Short:         "Extract CleverTap user profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = logging.Setup(logging.Config{
				Level:  logging.LogLevel(logLevel),
				Pretty: pretty,
				Output: a.stderr,
			})
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&logLevel, "log-level", getEnv("CLEVERTAP_LOG_LEVEL", "info"), "log level (debug, info, warn, error, disabled)")
	root.PersistentFlags().BoolVar(&pretty, "pretty", getEnvBool("CLEVERTAP_LOG_PRETTY", false), "human-readable logs")

	root.AddCommand(
		a.versionCmd(),
		a.specCmd(),
		a.checkCmd(),
		a.discoverCmd(),
		a.readCmd(),
	)

	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "source-clevertap v%s\n", version)
			fmt.Fprintf(a.stdout, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func (a *app) specCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec",
		Short: "Print the connector specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sink.WriteMessage(a.stdout, sink.Message{
				Type: sink.TypeSpec,
				Spec: connector.Spec(),
			})
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var configPath string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration against CleverTap",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result connector.CheckResult

			cfg, err := config.Load(configPath, a.now())
			if err != nil {
				result = connector.CheckResult{
					Status:  connector.StatusFailed,
					Message: "Connection check failed: " + err.Error(),
				}
			} else {
				result = connector.Check(cmd.Context(), cfg, a.options(connector.WithTimeout(timeout))...)
			}

			return sink.WriteMessage(a.stdout, sink.Message{
				Type:             sink.TypeConnectionStatus,
				ConnectionStatus: result,
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().DurationVar(&timeout, "timeout", getEnvDuration("CLEVERTAP_TIMEOUT", 30*time.Second), "timeout of each CleverTap request")

	return cmd
}

func (a *app) discoverCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the catalog of streams",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, a.now())
			if err != nil {
				return a.fail(err)
			}

			catalog, err := connector.Discover(cfg, a.options()...)
			if err != nil {
				return a.fail(err)
			}

			return sink.WriteMessage(a.stdout, sink.Message{
				Type:    sink.TypeCatalog,
				Catalog: catalog,
			})
		},
	}

	addConfigFlag(cmd, &configPath)

	return cmd
}

// readFlags holds the flags of the read command.
type readFlags struct {
	configPath  string
	catalogPath string
	maxPages    int
	timeout     time.Duration
	sinkName    string
	redisURL    string
	redisStream string
	redisMaxLen int64
	metricsAddr string
}

func (a *app) readCmd() *cobra.Command {
	var f readFlags

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Extract profiles and emit them as records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd.Context(), f)
		},
	}

	addConfigFlag(cmd, &f.configPath)
	cmd.Flags().StringVar(&f.catalogPath, "catalog", getEnv("CLEVERTAP_CATALOG", ""), "configured catalog file (default: profiles, full refresh)")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", getEnvInt("CLEVERTAP_MAX_PAGES", pagination.DefaultConfig().MaxPages), "maximum number of pages per read")
	cmd.Flags().DurationVar(&f.timeout, "timeout", getEnvDuration("CLEVERTAP_TIMEOUT", 30*time.Second), "timeout of each CleverTap request")
	cmd.Flags().StringVar(&f.sinkName, "sink", getEnv("CLEVERTAP_SINK", sinkStdout), "where records go: stdout or redis")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", getEnv("REDIS_URL", "redis://localhost:6379/0"), "Redis server for --sink=redis")
	cmd.Flags().StringVar(&f.redisStream, "redis-stream", getEnv("REDIS_STREAM", sink.DefaultRedisStream), "Redis stream key for --sink=redis")
	cmd.Flags().Int64Var(&f.redisMaxLen, "redis-maxlen", int64(getEnvInt("REDIS_STREAM_MAXLEN", 0)), "trim the Redis stream to this length (0 keeps everything)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", getEnv("METRICS_ADDR", ""), "serve Prometheus metrics on this address during the read")

	return cmd
}

func (a *app) read(ctx context.Context, f readFlags) error {
	cfg, err := config.Load(f.configPath, a.now())
	if err != nil {
		return a.fail(err)
	}

	var catalog *connector.ConfiguredCatalog
	if f.catalogPath != "" {
		if catalog, err = connector.LoadCatalog(f.catalogPath); err != nil {
			return a.fail(err)
		}
	}

	out, err := a.openSink(ctx, f)
	if err != nil {
		return a.fail(err)
	}

	if f.metricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, f.metricsAddr, a.logger); err != nil {
				a.logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	summary, readErr := connector.Read(ctx, cfg, catalog, out,
		a.options(connector.WithMaxPages(f.maxPages), connector.WithTimeout(f.timeout))...)

	if err := out.Close(); err != nil && readErr == nil {
		readErr = fmt.Errorf("close sink: %w", err)
	}
	if readErr != nil {
		a.logger.Error().
			Str("run_id", summary.RunID).
			Int("records", summary.Records).
			Msg("Read failed")
		return a.fail(readErr)
	}

	return nil
}

func (a *app) openSink(ctx context.Context, f readFlags) (sink.Sink, error) {
	switch f.sinkName {
	case sinkStdout, "":
		return sink.NewJSONLines(a.stdout), nil
	case sinkRedis:
		s, err := sink.OpenRedisStream(ctx, f.redisURL, sink.RedisConfig{
			Stream: f.redisStream,
			MaxLen: f.redisMaxLen,
		})
		if err != nil {
			return nil, err
		}
		a.logger.Info().Str("stream", s.StreamKey()).Msg("Writing records to Redis")
		return s, nil
	default:
		return nil, client.Errorf(client.KindConfigInvalid, "unknown sink %q (want %s or %s)", f.sinkName, sinkStdout, sinkRedis)
	}
}

func (a *app) options(extra ...connector.Option) []connector.Option {
	opts := []connector.Option{
		connector.WithLogger(a.logger),
		connector.WithClock(a.now),
	}
	opts = append(opts, extra...)
	return append(opts, a.extra...)
}

// fail logs err and returns it so the process exits non-zero.
func (a *app) fail(err error) error {
	a.logger.Error().Err(err).Str("kind", string(client.KindOf(err))).Msg("Command failed")
	fmt.Fprintln(a.stderr, "Error:", err)
	return err
}

func addConfigFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "config", getEnv("CLEVERTAP_CONFIG", "config.json"), "connector configuration file (JSON or YAML)")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantarax/sigtool/internal/config"
	"github.com/quantarax/sigtool/internal/crypto"
	"github.com/quantarax/sigtool/internal/observability"
	"github.com/quantarax/sigtool/internal/service"
)

const serviceName = "sigtool"

// version is set by the linker
var version = "dev"

const (
	exitOK           = 0
	exitFailure      = 1
	exitPrecondition = 2
	exitBadSignature = 3
)

// errSignatureMismatch is returned by verify after it has reported FAILED.
var errSignatureMismatch = errors.New("signature does not match")

// app carries state shared by all subcommands of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath  string
	keysDir     string
	encoding    string
	logLevel    string
	logFormat   string
	metricsFile string

	svc     *service.Service
	metrics *observability.Metrics
	cleanup []func(context.Context) error
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if closeErr := a.close(ctx); closeErr != nil && err == nil {
		err = closeErr
	}

	code := exitCode(err)
	switch {
	case err == nil, errors.Is(err, errSignatureMismatch):
	case errors.Is(err, crypto.ErrPreconditionFailed):
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		fmt.Fprintln(stderr, "Use --force to overwrite the existing keypair.")
	default:
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, crypto.ErrPreconditionFailed):
		return exitPrecondition
	case errors.Is(err, errSignatureMismatch):
		return exitBadSignature
	default:
		return exitFailure
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Hash files and sign them with an Ed25519 keypair.",
		Long: `sigtool computes file digests in constant memory, manages an Ed25519
keypair stored as key.pub / key.sec, and creates and checks detached
signatures.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", os.Getenv(config.EnvConfigFile), "YAML configuration file")
	flags.StringVar(&a.keysDir, "keys-dir", "", "Directory holding key.pub and key.sec")
	flags.StringVar(&a.encoding, "encoding", "", "Key and signature encoding: base58 or hex")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error, disabled")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: auto, json, console")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(
		a.generateCmd(),
		a.hashCmd(),
		a.signCmd(),
		a.verifyCmd(),
		a.showKeyCmd(),
		a.doctorCmd(),
	)
	return root
}

// setup resolves configuration (defaults, file, environment, flags) and
// builds the service with logging, metrics and tracing.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if a.keysDir != "" {
		cfg.KeysDirectory = a.keysDir
	}
	if a.encoding != "" {
		cfg.KeyEncoding = a.encoding
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.metricsFile != "" {
		cfg.MetricsFile = a.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := observability.NewLogger(serviceName, version, a.stderr, observability.LoggerOptions{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	shutdown, err := observability.InitTracing(cmd.Context(), serviceName, version)
	if err != nil {
		logger.Error(err, "tracing disabled")
	} else {
		a.cleanup = append(a.cleanup, shutdown)
	}

	a.metrics = observability.NewMetrics()
	if cfg.MetricsFile != "" {
		path := cfg.MetricsFile
		a.cleanup = append(a.cleanup, func(context.Context) error {
			return a.metrics.WriteTextfile(path)
		})
	}

	a.svc, err = service.New(cfg, logger, a.metrics)
	if err != nil {
		return err
	}
	a.svc.SetStdin(a.stdin)
	return nil
}

// close flushes metrics and traces. It runs whether or not the command
// succeeded.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for _, fn := range a.cleanup {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	return errors.Join(errs...)
}

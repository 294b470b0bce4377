package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dogmatiq/rpcpost"
	"github.com/dogmatiq/rpcpost/internal/version"
	"github.com/dogmatiq/rpcpost/transport/httptransport"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by every sub-command.
type app struct {
	viper    *viper.Viper
	logger   *zap.Logger
	provider *sdktrace.TracerProvider
	client   *rpcpost.Client

	envFile string
	cfgFile string
	output  string
	trace   bool
	debug   bool
}

func newRootCommand() *cobra.Command {
	a := &app{
		viper: viper.New(),
	}

	cmd := &cobra.Command{
		Use:   "rpcpost",
		Short: "Send JSON-RPC requests over HTTP",
		Long: `rpcpost sends JSON-RPC 2.0 calls and batches to a server over HTTP and
prints the results.

Connection settings are read from flags, RPCPOST_* environment variables, an
optional .env file and an optional configuration file, in that order of
precedence.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("url", httptransport.DefaultURL, "the URL of the JSON-RPC server")
	flags.Duration("timeout", httptransport.DefaultTimeout, "the maximum duration of each HTTP exchange")
	flags.String("user", "", "the user name used for basic authentication")
	flags.String("password", "", "the password used for basic authentication")
	flags.String("cookie", "", "the token used for cookie authentication")
	flags.StringVar(&a.envFile, "env-file", ".env", "a file of environment variables to load, if it exists")
	flags.StringVar(&a.cfgFile, "config", "", "a YAML configuration file")
	flags.StringVarP(&a.output, "output", "o", "json", "the output format, either json or yaml")
	flags.BoolVar(&a.trace, "trace", false, "write OpenTelemetry spans to stderr")
	flags.BoolVar(&a.debug, "debug", false, "log each HTTP exchange to stderr")
	flags.BoolVar(&color.NoColor, "no-color", color.NoColor, "disable coloured output")

	for _, k := range []string{"url", "timeout", "user", "password", "cookie"} {
		if err := a.viper.BindPFlag(k, flags.Lookup(k)); err != nil {
			panic(err) // CODE COVERAGE: flags are defined above.
		}
	}

	cmd.AddCommand(
		newCallCommand(a),
		newBatchCommand(a),
	)

	return cmd
}

// setup builds the client used by the sub-commands.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(a.output); err != nil {
		return err
	}

	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unable to load environment file: %w", err)
		}
	}

	if a.cfgFile != "" {
		a.viper.SetConfigFile(a.cfgFile)
		if err := a.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read configuration file: %w", err)
		}
	}

	cfg, err := httptransport.LoadConfig(a.viper)
	if err != nil {
		return err
	}

	b, err := cfg.Builder()
	if err != nil {
		return err
	}

	a.logger = newLogger(cmd, a.debug)
	b.Logger(a.logger)

	if a.trace {
		exp, err := stdouttrace.New(
			stdouttrace.WithWriter(cmd.ErrOrStderr()),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return fmt.Errorf("unable to create trace exporter: %w", err)
		}

		a.provider = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exp),
		)
		b.TracerProvider(a.provider)
	}

	a.client = rpcpost.NewClient(b.Build())

	return nil
}

// teardown flushes any buffered telemetry.
func (a *app) teardown(ctx context.Context) error {
	if a.provider != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := a.provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("unable to flush traces: %w", err)
		}
	}

	if a.logger != nil {
		a.logger.Sync() // nolint:errcheck
	}

	return nil
}

// newLogger returns the logger used by the transport. Only warnings are
// logged unless debug is true.
func newLogger(cmd *cobra.Command, debug bool) *zap.Logger {
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if !color.NoColor {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())),
		level,
	)

	return zap.New(core)
}

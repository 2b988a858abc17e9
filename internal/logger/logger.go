package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
)

const contextName = "lifecyclerunner"

var (
	appName     string
	environment string
	output      io.Writer = os.Stdout
	level                 = zerolog.InfoLevel
	base                  = zerolog.New(os.Stdout)
)

func Init() {
	zerolog.TimestampFieldName = "timestamp"
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	appName = os.Getenv("APP_NAME")
	if appName == "" {
		appName = os.Getenv("SERVICE_NAME")
	}
	environment = os.Getenv("NODE_ENV")
	if environment == "" {
		environment = "unknown"
	}
	rebuild()
}

// SetOutput redirects log lines, e.g. to stdout plus the forwarding buffer.
func SetOutput(w io.Writer) {
	output = w
	rebuild()
}

// SetLevel sets the minimum level from a name such as "debug" or "warn".
func SetLevel(name string) error {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	level = lvl
	rebuild()
	return nil
}

func rebuild() {
	base = New(output).Level(level)
}

// New builds a logger carrying the process-wide fields.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().
		Timestamp().
		Str("app_name", appName).
		Str("environment", environment).
		Str("context", contextName).
		Logger()
}

// Get returns the process logger.
func Get() zerolog.Logger { return base }

// FromContext returns l tagged with the Lambda request ID when ctx carries one.
func FromContext(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return l.With().Str("aws_request_id", lc.AwsRequestID).Logger()
	}
	return l
}

func Info(msg string) { base.Info().Msg(msg) }
func Error(msg string) { base.Error().Msg(msg) }
func Infof(format string, a ...any) { base.Info().Msgf(format, a...) }
func Errorf(format string, a ...any) { base.Error().Msgf(format, a...) }
func Fatalf(format string, a ...any) { base.WithLevel(zerolog.FatalLevel).Msgf(format, a...); os.Exit(1) }
func Fatal(msg string) { base.WithLevel(zerolog.FatalLevel).Msg(msg); os.Exit(1) }

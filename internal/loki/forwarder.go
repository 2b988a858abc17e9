package loki

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/mumzworld-tech/lifecyclerunner/internal/buffer"
)

// Forwarder ships buffered log lines to Loki at the end of each invocation.
type Forwarder struct {
	client    *Client
	buf       *buffer.Buffer
	labels    map[string]string
	batchSize int
	log       zerolog.Logger // must not write into buf
}

func NewForwarder(client *Client, buf *buffer.Buffer, labels map[string]string, batchSize int, log zerolog.Logger) *Forwarder {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Forwarder{
		client:    client,
		buf:       buf,
		labels:    lo.Assign(map[string]string{"source": "lambda"}, labels),
		batchSize: batchSize,
		log:       log,
	}
}

// Labels returns the stream labels attached to every push.
func (f *Forwarder) Labels() map[string]string {
	return lo.Assign(f.labels)
}

// Flush pushes everything buffered so far. Lines in a batch that fails to
// push are discarded; later batches stay buffered for the next flush.
func (f *Forwarder) Flush(ctx context.Context) error {
	if n := f.buf.Dropped(); n > 0 {
		f.log.Warn().Int("dropped", n).Msg("Log buffer overflowed")
	}

	for {
		lines := f.buf.Flush(f.batchSize)
		if len(lines) == 0 {
			return nil
		}
		if err := f.client.Push(ctx, f.pushRequest(lines)); err != nil {
			return err
		}
	}
}

func (f *Forwarder) pushRequest(lines []buffer.Line) *PushRequest {
	values := lo.Map(lines, func(l buffer.Line, _ int) []string {
		return []string{strconv.FormatInt(l.Timestamp, 10), l.Message}
	})
	return &PushRequest{
		Streams: []Stream{{Stream: f.labels, Values: values}},
	}
}

// Wrap runs h and then flushes. A flush failure is logged and never
// replaces the handler's result.
func Wrap[T any](f *Forwarder, h func(context.Context, T) error) func(context.Context, T) error {
	return func(ctx context.Context, in T) error {
		err := h(ctx, in)
		if ferr := f.Flush(ctx); ferr != nil {
			f.log.Error().Err(ferr).Msg("Failed to push logs to Loki")
		}
		return err
	}
}

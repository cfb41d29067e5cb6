package tef

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/hance08/tefpos/internal/constants"
	"go.uber.org/zap"
)

// WaitConfig bounds the two polling stages of a response cycle.
type WaitConfig struct {
	AckTimeout     time.Duration
	AckInterval    time.Duration
	ResultTimeout  time.Duration
	ResultInterval time.Duration

	// SettleDelay is how long to wait after the result file appears before
	// reading it. The engine's own write is not atomic.
	SettleDelay time.Duration
}

func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		AckTimeout:     7 * time.Second,
		AckInterval:    150 * time.Millisecond,
		ResultTimeout:  60 * time.Second,
		ResultInterval: 500 * time.Millisecond,
		SettleDelay:    300 * time.Millisecond,
	}
}

// ResponseWaiter polls the response directory for the engine's two files:
// the ack marker first, then the result record. Both are consumed (deleted)
// after reading so the next cycle starts clean.
type ResponseWaiter struct {
	dir   string
	codec *Codec
	cfg   WaitConfig
	log   *zap.Logger
}

func NewResponseWaiter(dir string, codec *Codec, cfg WaitConfig, log *zap.Logger) *ResponseWaiter {
	return &ResponseWaiter{dir: dir, codec: codec, cfg: cfg, log: log}
}

// Await runs both stages. resultTimeout overrides the configured result
// timeout when positive (PIX payments can take minutes while the customer
// scans the code).
func (w *ResponseWaiter) Await(ctx context.Context, resultTimeout time.Duration) (Record, error) {
	if resultTimeout <= 0 {
		resultTimeout = w.cfg.ResultTimeout
	}

	ackCtx, ackCancel := context.WithTimeout(ctx, w.cfg.AckTimeout)
	defer ackCancel()

	ackPath := filepath.Join(w.dir, constants.AckFile)
	if err := w.pollFor(ackCtx, ackPath, w.cfg.AckInterval); err != nil {
		return nil, &ProtocolError{Kind: FailureEngineUnresponsive, Err: err}
	}
	if err := os.Remove(ackPath); err != nil && !os.IsNotExist(err) {
		w.log.Warn("could not consume ack file", zap.String("path", ackPath), zap.Error(err))
	}
	w.log.Info("engine acknowledged request", zap.String("path", ackPath))

	// One deadline bounds the whole result stage: appearance, settling and
	// the read retries all spend from the same window.
	resultCtx, resultCancel := context.WithTimeout(ctx, resultTimeout)
	defer resultCancel()

	resultPath := filepath.Join(w.dir, constants.ResponseFile)
	if err := w.pollFor(resultCtx, resultPath, w.cfg.ResultInterval); err != nil {
		return nil, &ProtocolError{Kind: FailureResponseTimeout, Err: err}
	}

	if err := sleepCtx(resultCtx, w.cfg.SettleDelay); err != nil {
		return nil, &ProtocolError{Kind: FailureResponseTimeout, Err: err}
	}

	rec, err := w.readResult(resultCtx, resultPath)
	if err != nil {
		return nil, err
	}

	if err := os.Remove(resultPath); err != nil && !os.IsNotExist(err) {
		w.log.Warn("could not consume result file", zap.String("path", resultPath), zap.Error(err))
	}

	return rec, nil
}

// Drain removes any ack or result file left over from an abandoned cycle so
// it can never be misattributed to the next transaction. Returns the paths
// it removed.
func (w *ResponseWaiter) Drain() []string {
	var removed []string
	for _, name := range []string{constants.AckFile, constants.ResponseFile} {
		path := filepath.Join(w.dir, name)
		if err := os.Remove(path); err == nil {
			removed = append(removed, path)
		}
	}
	return removed
}

// pollFor waits for path to exist, checking at the given interval until the
// context expires. Stat errors other than absence are treated as "not yet"
// and retried within the window.
func (w *ResponseWaiter) pollFor(ctx context.Context, path string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// readResult reads and decodes the result file, retrying transient read
// errors (file still being written, permission races) within what remains of
// the result window.
func (w *ResponseWaiter) readResult(ctx context.Context, path string) (Record, error) {
	for {
		data, err := os.ReadFile(path)
		if err == nil {
			rec, decErr := w.codec.Decode(data)
			if decErr == nil {
				return rec, nil
			}
			err = decErr
		}

		w.log.Warn("result file not readable yet, retrying", zap.String("path", path), zap.Error(err))

		if sleepErr := sleepCtx(ctx, w.cfg.ResultInterval); sleepErr != nil {
			return nil, &ProtocolError{Kind: FailureResponseTimeout, Err: errors.Join(err, sleepErr)}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

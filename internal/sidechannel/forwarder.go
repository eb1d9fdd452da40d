// internal/sidechannel/forwarder.go
// Best-effort cross-model context mirroring. After one model replies during a
// broadcast, its reply is posted to every other selected kin's add-message
// endpoint so their future turns can see it as prior context. These calls are
// fire-and-forget: failures are logged, never retried, and never touch
// conversation state.
package sidechannel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kinschat/internal/kinos"
)

// forwardRole is the role recorded for mirrored context entries.
const forwardRole = "assistant"

// mirrorSource tags mirrored entries in the kin's metadata.
const mirrorSource = "global_message"

// Appender posts a context entry to one kin.
type Appender interface {
	AddMessage(ctx context.Context, kinID string, req kinos.AddMessageRequest) error
}

// Forwarder mirrors replies across kins asynchronously.
type Forwarder struct {
	appender Appender
	logger   *slog.Logger
	timeout  time.Duration
	enabled  bool
	wg       sync.WaitGroup
}

func New(appender Appender, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		appender: appender,
		logger:   logger,
		timeout:  15 * time.Second, // short: nobody is waiting for these
		enabled:  true,
	}
}

// SetEnabled turns mirroring on or off.
func (f *Forwarder) SetEnabled(enabled bool) {
	f.enabled = enabled
}

// Forward posts label to every target kin asynchronously and returns
// immediately. originModel and originMessageID identify the reply being
// mirrored.
func (f *Forwarder) Forward(targets []string, label, originModel, originMessageID string) {
	if !f.enabled || len(targets) == 0 {
		return
	}

	req := kinos.AddMessageRequest{
		Message: label,
		Role:    forwardRole,
		Metadata: kinos.AddMessageMetadata{
			Source:            mirrorSource,
			OriginalModel:     originModel,
			OriginalMessageID: originMessageID,
		},
	}

	for _, target := range targets {
		f.wg.Add(1)
		go func(kinID string) {
			defer f.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
			defer cancel()

			if err := f.appender.AddMessage(ctx, kinID, req); err != nil {
				f.logger.Warn("context mirror failed",
					"target", kinID,
					"origin", originModel,
					"error", err)
				return
			}
			f.logger.Debug("context mirrored", "target", kinID, "origin", originModel)
		}(target)
	}
}

// Wait blocks until all in-flight forwards settle. Used on shutdown and in
// tests; normal operation never waits.
func (f *Forwarder) Wait() {
	f.wg.Wait()
}

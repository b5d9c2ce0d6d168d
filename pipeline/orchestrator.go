// Package pipeline composes the validator, converter engine, and status
// tracker into the per-event entry point of the conversion service.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"convertstudio/models"
	"convertstudio/validate"
)

// StorageGateway is the object-store boundary the pipeline consumes.
// Download fails when the object is absent; Upload returns the stored path.
type StorageGateway interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
}

// Converter is the engine boundary. It never fails hard; all failure modes
// are carried in the outcome.
type Converter interface {
	Convert(pdfBytes []byte) models.ConversionOutcome
}

// StatusTracker records lifecycle transitions. Implementations are
// best-effort and must not propagate store failures.
type StatusTracker interface {
	SetStatus(ctx context.Context, userID, recordID string, update models.StatusUpdate)
}

// Options carries the pipeline's policy knobs.
type Options struct {
	// MaxFileSizeBytes rejects oversize uploads before any byte is fetched.
	MaxFileSizeBytes int64
	// AllowedTypes is the MIME allow list for conversion inputs.
	AllowedTypes []string
	// TargetExtension names the output format, e.g. "docx".
	TargetExtension string
	// TargetContentType is the MIME type of uploaded outputs.
	TargetContentType string
}

// Orchestrator drives one event through received -> validated -> processing
// -> succeeded|failed. All collaborators are injected so tests can run the
// whole pipeline against in-memory fakes.
type Orchestrator struct {
	gateway   StorageGateway
	converter Converter
	tracker   StatusTracker
	opts      Options
	log       zerolog.Logger
}

// New builds an Orchestrator.
func New(gateway StorageGateway, converter Converter, tracker StatusTracker, opts Options, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:   gateway,
		converter: converter,
		tracker:   tracker,
		opts:      opts,
		log:       log,
	}
}

// Handle processes one upload event to completion. It never reports an
// error to the caller: once Handle returns, the event is considered
// handled, and redelivery is the delivery layer's decision alone. Failures
// are logged and, for permanent-storage inputs, written to the status
// record.
func (o *Orchestrator) Handle(ctx context.Context, event models.ConversionEvent) {
	log := o.log.With().
		Str("path", event.Path).
		Str("contentType", event.ContentType).
		Int64("size", event.SizeBytes).
		Logger()
	log.Info().Msg("processing upload event")

	cls, reason := validate.Classify(event.Path, event.ContentType, o.opts.AllowedTypes)
	switch reason {
	case validate.RejectOutOfScope:
		log.Info().Msg("skipping file - not in conversion path")
		return
	case validate.RejectAlreadyConverted:
		log.Info().Msg("skipping already converted file")
		return
	case validate.RejectUnsupportedType:
		log.Warn().Msg("unsupported file type for conversion")
		if cls.IsPermanentStorage {
			o.trackFailed(ctx, cls, "Unsupported file type")
		}
		return
	}

	// Size gate, checked before any byte is fetched.
	if event.SizeBytes > o.opts.MaxFileSizeBytes {
		log.Error().Int64("max", o.opts.MaxFileSizeBytes).Msg("file too large for conversion")
		if cls.IsPermanentStorage {
			o.trackFailed(ctx, cls, fmt.Sprintf("File too large (max %dMB)", o.opts.MaxFileSizeBytes>>20))
		}
		return
	}

	o.tracker.SetStatus(ctx, cls.UserID, cls.RecordID, models.StatusUpdate{Status: models.StatusProcessing})

	source, err := o.gateway.Download(ctx, event.Path)
	if err != nil {
		log.Error().Err(err).Msg("source download failed")
		o.trackFailed(ctx, cls, fmt.Sprintf("Download failed: %v", err))
		return
	}

	outcome := o.converter.Convert(source)
	if !outcome.Success {
		log.Error().Str("reason", outcome.ErrorMessage).Msg("conversion failed")
		o.trackFailed(ctx, cls, outcome.ErrorMessage)
		return
	}

	convertedPath := validate.ConvertedPath(event.Path, o.opts.TargetExtension)
	if _, err := o.gateway.Upload(ctx, outcome.OutputBytes, convertedPath, o.opts.TargetContentType); err != nil {
		log.Error().Err(err).Str("convertedPath", convertedPath).Msg("result upload failed")
		o.trackFailed(ctx, cls, fmt.Sprintf("Upload failed: %v", err))
		return
	}

	o.tracker.SetStatus(ctx, cls.UserID, cls.RecordID, models.StatusUpdate{
		Status:           models.StatusCompleted,
		ConvertedPath:    &convertedPath,
		ProcessingTimeMs: &outcome.ProcessingTimeMs,
	})

	log.Info().
		Str("convertedPath", convertedPath).
		Int64("processingTimeMs", outcome.ProcessingTimeMs).
		Msg("conversion completed")
}

func (o *Orchestrator) trackFailed(ctx context.Context, cls models.Classification, message string) {
	o.tracker.SetStatus(ctx, cls.UserID, cls.RecordID, models.StatusUpdate{
		Status:       models.StatusFailed,
		ErrorMessage: &message,
	})
}

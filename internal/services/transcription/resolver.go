package transcription

import (
	"context"
	"log/slog"

	"github.com/murmur-app/murmur/internal/errors"
	"github.com/murmur-app/murmur/internal/logger"
)

// Resolver turns an AudioSource into the single URL the provider will read.
type Resolver struct {
	provider Provider
}

func NewResolver(provider Provider) *Resolver {
	return &Resolver{provider: provider}
}

// Resolve uploads file sources and passes URL sources through verbatim.
// A missing source fails before any network call.
func (r *Resolver) Resolve(ctx context.Context, src AudioSource) (string, error) {
	if !src.IsPresent() {
		return "", errMissingInput()
	}

	if src.Kind == SourceURL {
		return src.URL, nil
	}

	slog.InfoContext(ctx, "Uploading audio file",
		"name", src.Name,
		"size", src.Size,
		"mime", src.MimeHint,
		logger.WithTraceContext(ctx),
	)

	uploadURL, err := r.provider.Upload(ctx, src.Body)
	if err != nil {
		return "", classify(ctx, stageUpload, err)
	}
	if uploadURL == "" {
		return "", errors.NewUploadError("provider returned no upload URL", "UPLOAD_URL_MISSING", nil)
	}
	return uploadURL, nil
}

func errMissingInput() error {
	return errors.NewValidationError(
		"no audio file or audio URL provided",
		"MISSING_AUDIO_INPUT",
		"Send a 'file' field or an 'audio_url' field.",
	)
}

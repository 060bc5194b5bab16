package videos

import "errors"

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrNoContent indicates a video had neither subtitles nor a description to analyse.
	ErrNoContent = errors.New("video has no text to analyse")
)

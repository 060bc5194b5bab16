package videos

import "context"

// Metadata captures what the analyzer needs to know about a video.
type Metadata struct {
	Title       string
	Description string
	Uploader    string
	Platform    string
	// Duration is in whole seconds.
	Duration int
	// Transcript holds the subtitle text when the platform exposes it.
	Transcript string
}

// Provider returns metadata for the supplied video URL.
type Provider interface {
	Lookup(ctx context.Context, url string) (Metadata, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, url string) (Metadata, error)

// Lookup implements Provider.
func (f ProviderFunc) Lookup(ctx context.Context, url string) (Metadata, error) {
	return f(ctx, url)
}

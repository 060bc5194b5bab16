package videos

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// maxSubtitleBytes bounds how much caption text is downloaded per video.
const maxSubtitleBytes = 1 << 20

// YTDLPProvider fetches metadata using the yt-dlp CLI tool. Captions listed
// in the metadata are downloaded over HTTP and flattened into a transcript.
type YTDLPProvider struct {
	Binary    string
	Args      []string
	Run       CommandRunner
	Timeout   time.Duration
	HTTP      *http.Client
	Languages []string
}

// NewYTDLPProvider constructs a Provider that shells out to yt-dlp.
func NewYTDLPProvider(binary string, timeout time.Duration) *YTDLPProvider {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLPProvider{
		Binary:    binary,
		Args:      []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download"},
		Run:       defaultCommandRunner,
		Timeout:   timeout,
		HTTP:      http.DefaultClient,
		Languages: []string{"es", "en"},
	}
}

type captionTrack struct {
	Ext string `json:"ext"`
	URL string `json:"url"`
}

type ytdlpPayload struct {
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	Uploader          string                    `json:"uploader"`
	ExtractorKey      string                    `json:"extractor_key"`
	Duration          float64                   `json:"duration"`
	Subtitles         map[string][]captionTrack `json:"subtitles"`
	AutomaticCaptions map[string][]captionTrack `json:"automatic_captions"`
}

// Lookup executes yt-dlp for the provided URL and parses the JSON response.
func (p *YTDLPProvider) Lookup(ctx context.Context, url string) (Metadata, error) {
	if p == nil {
		return Metadata{}, ErrProviderUnavailable
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, url)

	out, err := p.Run(execCtx, p.Binary, args...)
	if err != nil {
		return Metadata{}, fmt.Errorf("yt-dlp fetch: %w", err)
	}

	var payload ytdlpPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return Metadata{}, fmt.Errorf("parse yt-dlp response: %w", err)
	}

	if payload.Title == "" && payload.Description == "" {
		return Metadata{}, errors.New("yt-dlp returned empty metadata")
	}

	meta := Metadata{
		Title:       payload.Title,
		Description: payload.Description,
		Uploader:    payload.Uploader,
		Platform:    strings.ToLower(payload.ExtractorKey),
		Duration:    int(payload.Duration + 0.5),
	}

	if track, ok := p.pickCaptions(payload); ok {
		transcript, err := p.fetchCaptions(execCtx, track)
		if err == nil {
			meta.Transcript = transcript
		}
	}

	return meta, nil
}

// pickCaptions prefers uploaded subtitles over automatic ones, and the
// configured languages in order.
func (p *YTDLPProvider) pickCaptions(payload ytdlpPayload) (captionTrack, bool) {
	for _, set := range []map[string][]captionTrack{payload.Subtitles, payload.AutomaticCaptions} {
		for _, lang := range p.Languages {
			for _, track := range set[lang] {
				if track.Ext == "vtt" && track.URL != "" {
					return track, true
				}
			}
		}
	}
	return captionTrack{}, false
}

func (p *YTDLPProvider) fetchCaptions(ctx context.Context, track captionTrack) (string, error) {
	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build caption request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch captions: status %d", resp.StatusCode)
	}

	return flattenVTT(io.LimitReader(resp.Body, maxSubtitleBytes))
}

// flattenVTT keeps the cue text of a WebVTT file, dropping timings, headers,
// inline tags, and the consecutive duplicates automatic captions produce.
func flattenVTT(r io.Reader) (string, error) {
	var (
		lines []string
		last  string
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "",
			line == "WEBVTT",
			strings.Contains(line, "-->"),
			strings.HasPrefix(line, "Kind:"),
			strings.HasPrefix(line, "Language:"),
			strings.HasPrefix(line, "NOTE"):
			continue
		}

		line = stripTags(line)
		if line == "" || line == last {
			continue
		}
		lines = append(lines, line)
		last = line
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read captions: %w", err)
	}

	return strings.Join(lines, " "), nil
}

func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}

// Package httpx downloads remote assets for ingestion.
package httpx

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/h2non/filetype"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultMaxBytes = 64 << 20
	defaultAgent    = "catalog-seeder/1.0"
)

// Asset is a downloaded payload with its sniffed type.
type Asset struct {
	URL         string
	Data        []byte
	ContentType string
	Extension   string
}

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	log        *logger.Logger
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.httpClient.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if strings.TrimSpace(ua) != "" {
			f.userAgent = strings.TrimSpace(ua)
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

func NewFetcher(log *logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultAgent,
		maxBytes:   defaultMaxBytes,
		log:        log.With("service", "AssetFetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url. Transport failures and non-2xx answers are upstream fetch
// errors; bodies larger than the configured limit are rejected.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Asset, error) {
	const op = "asset.fetch"
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, types.ValidationError(op, "", "asset url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.ValidationError(op, url, err.Error())
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, types.NewError(types.CodeUpstreamFetch, op, url, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewError(types.CodeUpstreamFetch, op, url,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, types.NewError(types.CodeUpstreamFetch, op, url, "read body", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, types.NewError(types.CodeUpstreamFetch, op, url, fmt.Sprintf("asset exceeds %d bytes", f.maxBytes), nil)
	}
	if len(data) == 0 {
		return nil, types.NewError(types.CodeUpstreamFetch, op, url, "empty body", nil)
	}

	contentType, ext := Sniff(data, resp.Header.Get("Content-Type"))
	f.log.Debug("Asset fetched", "url", url, "bytes", len(data), "content_type", contentType)
	return &Asset{URL: url, Data: data, ContentType: contentType, Extension: ext}, nil
}

// Sniff identifies data by its magic bytes and falls back to the declared
// content type.
func Sniff(data []byte, declared string) (contentType, ext string) {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value, kind.Extension
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" {
		return "application/octet-stream", ""
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return mediaType, strings.TrimPrefix(exts[0], ".")
	}
	return mediaType, ""
}

func IsImage(a *Asset) bool {
	return a != nil && strings.HasPrefix(a.ContentType, "image/")
}

func IsAudio(a *Asset) bool {
	return a != nil && strings.HasPrefix(a.ContentType, "audio/")
}

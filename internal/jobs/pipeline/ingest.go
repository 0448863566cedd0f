package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/echobeat/catalog-seeder/internal/catalog"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/gcp"
	"github.com/echobeat/catalog-seeder/internal/platform/httpx"
	"github.com/echobeat/catalog-seeder/internal/platform/imaging"
	"github.com/echobeat/catalog-seeder/internal/platform/objname"
)

const (
	audioPrefix      = "audio"
	trackCoverPrefix = "covers/tracks"

	cursorSaveTimeout = 5 * time.Second
)

type FailedRecord struct {
	Name    string
	Code    types.ErrorCode
	Message string
}

type PageReport struct {
	Offset     int
	Fetched    int
	Ingested   int
	Failed     []FailedRecord
	NextOffset int
	Exhausted  bool
}

// ResumeOffset returns the saved feed cursor, or 0 when none was saved.
func (p *Pipeline) ResumeOffset(ctx context.Context) (int, error) {
	n, ok, err := p.cursor.Load(ctx, p.cfg.FeedName)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return n, nil
}

// IngestPage ingests one feed page. Failures are isolated per record and
// recorded in ingest_failure. Only configuration errors, a failed page fetch
// and cancellation end the page early; the cursor then covers the records
// already handled.
func (p *Pipeline) IngestPage(ctx context.Context, offset, limit int) (PageReport, error) {
	const op = "pipeline.ingest_page"
	if p.feed == nil {
		return PageReport{}, types.ConfigurationError(op, "no feed configured (set JAMENDO_CLIENT_ID)")
	}
	if p.fetcher == nil || p.blobs == nil {
		return PageReport{}, types.ConfigurationError(op, "ingest needs an asset fetcher and object storage")
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = p.cfg.PageSize
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, op, trace.WithAttributes(
		attribute.Int("feed.offset", offset),
		attribute.Int("feed.limit", limit),
	))
	defer span.End()

	report := PageReport{Offset: offset, NextOffset: offset}
	start := time.Now()
	page, err := p.feed.Page(ctx, offset, limit)
	p.metrics.ObserveFetch("feed_page", statusOf(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feed page")
		return report, err
	}
	report.Fetched = len(page.Records)
	p.log.Info("Feed page fetched", "offset", offset, "limit", limit, "records", len(page.Records), "total", page.Total)

	var runErr error
	for _, rec := range page.Records {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if _, err := p.ingestRecord(ctx, rec); err != nil {
			if types.IsFatal(err) {
				runErr = err
				break
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				runErr = err
				break
			}
			p.recordFailure(ctx, rec, err)
			report.Failed = append(report.Failed, FailedRecord{Name: rec.Name, Code: types.CodeOf(err), Message: err.Error()})
		} else {
			report.Ingested++
		}
		report.NextOffset++
	}
	if runErr == nil {
		report.NextOffset = page.NextOffset()
		report.Exhausted = page.Exhausted()
	}

	p.saveCursor(ctx, report.NextOffset)
	span.SetAttributes(attribute.Int("feed.ingested", report.Ingested), attribute.Int("feed.failed", len(report.Failed)))
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "page aborted")
		return report, runErr
	}
	p.log.Info("Feed page ingested",
		"offset", offset,
		"ingested", report.Ingested,
		"failed", len(report.Failed),
		"next_offset", report.NextOffset,
		"exhausted", report.Exhausted,
	)
	return report, nil
}

type trackAssets struct {
	audio *httpx.Asset
	cover *httpx.Asset
}

// saveCursor persists offset even when ctx is already cancelled, so an
// interrupted page resumes after the records it handled.
func (p *Pipeline) saveCursor(ctx context.Context, offset int) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cursorSaveTimeout)
	defer cancel()
	if err := p.cursor.Save(saveCtx, p.cfg.FeedName, offset); err != nil {
		p.log.Warn("Saving feed cursor failed", "feed", p.cfg.FeedName, "offset", offset, "error", err)
	}
}

func (p *Pipeline) ingestRecord(ctx context.Context, rec types.FeedTrack) (types.TrackRef, error) {
	const op = "pipeline.ingest_track"
	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("track.name", rec.Name), attribute.String("track.external_id", rec.ExternalID))

	ref, err := p.ingestRecordInner(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(types.CodeOf(err)))
		p.metrics.ObserveRecord("failed", string(types.CodeOf(err)))
		p.log.Warn("Track skipped",
			"track", rec.Name,
			"album", rec.Album,
			"external_id", rec.ExternalID,
			"code", types.CodeOf(err),
			"error", err,
		)
		return types.TrackRef{}, err
	}
	p.metrics.ObserveRecord("ingested", "")
	return ref, nil
}

func (p *Pipeline) ingestRecordInner(ctx context.Context, rec types.FeedTrack) (types.TrackRef, error) {
	if err := rec.Validate(); err != nil {
		return types.TrackRef{}, err
	}
	assets, err := p.fetchAssets(ctx, rec)
	if err != nil {
		return types.TrackRef{}, err
	}
	if assets.cover == nil {
		if data, mimeType, ok := imaging.EmbeddedCover(assets.audio.Data); ok {
			contentType, ext := httpx.Sniff(data, mimeType)
			assets.cover = &httpx.Asset{URL: "embedded:" + rec.AudioURL, Data: data, ContentType: contentType, Extension: ext}
			p.log.Debug("Using embedded cover art", "track", rec.Name)
		}
	}
	if assets.cover != nil {
		if err := p.normalizeCover(rec.Name, assets.cover); err != nil {
			return types.TrackRef{}, err
		}
	}

	audioURL, coverURL, err := p.uploadAssets(ctx, rec.Name, assets)
	if err != nil {
		return types.TrackRef{}, err
	}

	return p.services.Ingestor.Ingest(ctx, catalog.TrackInput{
		Name:            rec.Name,
		Artists:         rec.Artists,
		Album:           rec.Album,
		DurationSeconds: rec.DurationSeconds,
		CoverURL:        coverURL,
		AudioURL:        audioURL,
		LicenseURL:      rec.LicenseURL,
		ReleaseDate:     rec.ReleaseDate,
		Genres:          rec.Genres,
	})
}

// fetchAssets downloads the audio and, when referenced, the cover image
// concurrently. Either failure fails the record.
func (p *Pipeline) fetchAssets(ctx context.Context, rec types.FeedTrack) (trackAssets, error) {
	var out trackAssets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		a, err := p.fetcher.Fetch(gctx, rec.AudioURL)
		p.metrics.ObserveFetch("audio", statusOf(err), time.Since(start))
		if err != nil {
			return types.Wrap(types.CodeUpstreamFetch, "pipeline.fetch_audio", rec.Name, err)
		}
		if !httpx.IsAudio(a) && a.ContentType != "application/octet-stream" {
			return types.ValidationError("pipeline.fetch_audio", rec.Name, "audio asset has content type "+a.ContentType)
		}
		out.audio = a
		return nil
	})
	if strings.TrimSpace(rec.ImageURL) != "" {
		g.Go(func() error {
			start := time.Now()
			a, err := p.fetcher.Fetch(gctx, rec.ImageURL)
			p.metrics.ObserveFetch("cover", statusOf(err), time.Since(start))
			if err != nil {
				return types.Wrap(types.CodeUpstreamFetch, "pipeline.fetch_cover", rec.Name, err)
			}
			out.cover = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return trackAssets{}, err
	}
	return out, nil
}

// normalizeCover rejects non-images and scales oversized covers down.
func (p *Pipeline) normalizeCover(name string, cover *httpx.Asset) error {
	data, resized, err := imaging.FitWithin(cover.Data, p.cfg.CoverMaxDim)
	if err != nil {
		return types.NewError(types.CodeValidation, "pipeline.cover", name, "cover is not a decodable image", err)
	}
	if resized {
		p.log.Debug("Cover downscaled", "track", name, "before_bytes", len(cover.Data), "after_bytes", len(data))
		cover.Data = data
		cover.ContentType = "image/jpeg"
		cover.Extension = "jpg"
	}
	return nil
}

func (p *Pipeline) uploadAssets(ctx context.Context, name string, assets trackAssets) (audioURL, coverURL string, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ext := assets.audio.Extension
		if ext == "" {
			ext = "mp3"
		}
		url, err := p.upload(gctx, gcp.BucketCategoryAudio, objname.Key(audioPrefix, name, ext), assets.audio)
		if err != nil {
			return types.Wrap(types.CodeStorage, "pipeline.upload_audio", name, err)
		}
		audioURL = url
		return nil
	})
	if assets.cover != nil {
		g.Go(func() error {
			ext := assets.cover.Extension
			if ext == "" {
				ext = "jpg"
			}
			url, err := p.upload(gctx, gcp.BucketCategoryTrackCover, objname.Key(trackCoverPrefix, name, ext), assets.cover)
			if err != nil {
				return types.Wrap(types.CodeStorage, "pipeline.upload_cover", name, err)
			}
			coverURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return audioURL, coverURL, nil
}

func (p *Pipeline) upload(ctx context.Context, category gcp.BucketCategory, key string, a *httpx.Asset) (string, error) {
	url, err := p.blobs.Upload(ctx, category, key, a.Data, a.ContentType)
	p.metrics.ObserveUpload(string(category), statusOf(err))
	return url, err
}

// recordFailure keeps the raw feed record so the track can be replayed.
func (p *Pipeline) recordFailure(ctx context.Context, rec types.FeedTrack, cause error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		payload = nil
	}
	operation := "pipeline.ingest_track"
	var ce *types.Error
	if errors.As(cause, &ce) && ce.Op != "" {
		operation = ce.Op
	}
	code := string(types.CodeOf(cause))
	if code == "" {
		code = "unknown"
	}
	row := &types.IngestFailure{
		TrackName: strings.TrimSpace(rec.Name),
		Operation: operation,
		Code:      code,
		Message:   cause.Error(),
		Payload:   datatypes.JSON(payload),
	}
	if err := p.repos.IngestFailures.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		p.log.Error("Recording ingest failure failed", "track", rec.Name, "error", err)
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/echobeat/catalog-seeder/internal/catalog"
	"github.com/echobeat/catalog-seeder/internal/clients/redis"
	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	"github.com/echobeat/catalog-seeder/internal/data/repos/testutil"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/observability"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/gcp"
	"github.com/echobeat/catalog-seeder/internal/platform/httpx"
)

type fakeFeed struct {
	records []types.FeedTrack
	err     error
	calls   []int
}

func (f *fakeFeed) Page(_ context.Context, offset, limit int) (types.FeedPage, error) {
	f.calls = append(f.calls, offset)
	if f.err != nil {
		return types.FeedPage{}, f.err
	}
	end := offset + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	var recs []types.FeedTrack
	if offset < end {
		recs = f.records[offset:end]
	}
	return types.FeedPage{Offset: offset, Limit: limit, Total: len(f.records), Records: recs}, nil
}

type fakeFetcher struct {
	assets map[string]*httpx.Asset
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*httpx.Asset, error) {
	a, ok := f.assets[url]
	if !ok {
		return nil, types.NewError(types.CodeUpstreamFetch, "asset.fetch", url, "HTTP 404", nil)
	}
	cp := *a
	return &cp, nil
}

type fakeBlobs struct {
	mu      sync.Mutex
	uploads map[string]string
	failKey string
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{uploads: map[string]string{}} }

func (b *fakeBlobs) Upload(_ context.Context, category gcp.BucketCategory, key string, _ []byte, contentType string) (string, error) {
	if b.failKey != "" && key == b.failKey {
		return "", types.NewError(types.CodeStorage, "gcs.upload", key, "bucket unavailable", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads[key] = contentType
	return b.PublicURL(category, key), nil
}

func (b *fakeBlobs) PublicURL(category gcp.BucketCategory, key string) string {
	return "https://cdn.test/" + string(category) + "/" + key
}

func (b *fakeBlobs) Close() error { return nil }

func (b *fakeBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.uploads[key]
	return ok
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type harness struct {
	db      *gorm.DB
	set     repos.Set
	feed    *fakeFeed
	fetcher *fakeFetcher
	blobs   *fakeBlobs
	cursor  *redis.MemoryCursorStore
	metrics *observability.Metrics
	p       *Pipeline
}

func newHarness(t *testing.T, records ...types.FeedTrack) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	h := &harness{
		db:      db,
		set:     set,
		feed:    &fakeFeed{records: records},
		fetcher: &fakeFetcher{assets: map[string]*httpx.Asset{}},
		blobs:   newFakeBlobs(),
		cursor:  redis.NewMemoryCursorStore(),
		metrics: observability.NewMetrics(),
	}
	services := catalog.NewServices(aggregates.BaseDeps{DB: db, Log: log, Hooks: h.metrics}, set, catalog.DefaultConfig())
	h.p = New(Deps{
		DB:       db,
		Log:      log,
		Hooks:    h.metrics,
		Services: services,
		Repos:    set,
		Feed:     h.feed,
		Fetcher:  h.fetcher,
		Blobs:    h.blobs,
		Cursor:   h.cursor,
		Metrics:  h.metrics,
	}, Config{PageSize: 10})
	return h
}

func (h *harness) withAudio(url string) {
	h.fetcher.assets[url] = &httpx.Asset{URL: url, Data: []byte("not really mpeg"), ContentType: "audio/mpeg", Extension: "mp3"}
}

func record(name, album string, artists ...string) types.FeedTrack {
	return types.FeedTrack{
		ExternalID:      "ext-" + name,
		Name:            name,
		Artists:         artists,
		Album:           album,
		DurationSeconds: 150,
		AudioURL:        "https://feed.test/audio/" + name,
		LicenseURL:      "http://creativecommons.org/licenses/by/3.0/",
		ReleaseDate:     "2020-02-02",
		Genres:          []string{"Rock"},
	}
}

func TestIngestPageUploadsAndIngests(t *testing.T) {
	ctx := context.Background()
	withCover := record("Song 1", "Alpha", "Alice")
	withCover.ImageURL = "https://feed.test/img/1"
	plain := record("Song 2", "Alpha", "Alice", "Bob")
	h := newHarness(t, withCover, plain)
	h.withAudio(withCover.AudioURL)
	h.withAudio(plain.AudioURL)
	h.fetcher.assets[withCover.ImageURL] = &httpx.Asset{Data: pngBytes(t, 4, 4), ContentType: "image/png", Extension: "png"}

	rep, err := h.p.IngestPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, rep.Fetched)
	require.Equal(t, 2, rep.Ingested)
	require.Empty(t, rep.Failed)
	require.Equal(t, 2, rep.NextOffset)
	require.True(t, rep.Exhausted)

	require.True(t, h.blobs.has("audio/song-1.mp3"))
	require.True(t, h.blobs.has("audio/song-2.mp3"))
	require.True(t, h.blobs.has("covers/tracks/song-1.png"))

	tracks, err := h.set.Track.ListByName(dbctx.Context{Ctx: ctx}, "Song 1")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, "https://cdn.test/track_cover/covers/tracks/song-1.png", tracks[0].CoverURL)
	require.Equal(t, "https://cdn.test/audio/audio/song-1.mp3", tracks[0].AudioURL)
	require.Equal(t, "150", tracks[0].Duration)

	tracks, err = h.set.Track.ListByName(dbctx.Context{Ctx: ctx}, "Song 2")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, catalog.DefaultConfig().DefaultImage, tracks[0].CoverURL)

	saved, ok, err := h.cursor.Load(ctx, "jamendo")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, saved)
	require.Equal(t, float64(2), h.metrics.RecordCount("ingested", ""))
}

func TestIngestPageIsolatesUploadFailure(t *testing.T) {
	ctx := context.Background()
	ok := record("Song1", "Alpha", "Alice")
	bad := record("Song2", "Alpha", "Alice")
	h := newHarness(t, ok, bad)
	h.withAudio(ok.AudioURL)
	h.withAudio(bad.AudioURL)
	h.blobs.failKey = "audio/song2.mp3"

	rep, err := h.p.IngestPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Ingested)
	require.Len(t, rep.Failed, 1)
	require.Equal(t, "Song2", rep.Failed[0].Name)
	require.Equal(t, types.CodeStorage, rep.Failed[0].Code)
	require.Equal(t, 2, rep.NextOffset)

	var n int64
	require.NoError(t, h.db.Model(&types.Track{}).Where("name = ?", "Song2").Count(&n).Error)
	require.Zero(t, n)

	failures, err := h.p.RecentFailures(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	require.Equal(t, "Song2", failures[0].TrackName)
	require.Equal(t, string(types.CodeStorage), failures[0].Code)
	require.Contains(t, string(failures[0].Payload), `"name":"Song2"`)
	require.Equal(t, float64(1), h.metrics.RecordCount("failed", string(types.CodeStorage)))
}

func TestIngestPageRecordsFetchAndValidationFailures(t *testing.T) {
	ctx := context.Background()
	missing := record("Lost", "Alpha", "Alice")
	invalid := record("Nameless", "", "Alice")
	h := newHarness(t, missing, invalid)

	rep, err := h.p.IngestPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Zero(t, rep.Ingested)
	require.Len(t, rep.Failed, 2)
	require.Equal(t, types.CodeUpstreamFetch, rep.Failed[0].Code)
	require.Equal(t, types.CodeValidation, rep.Failed[1].Code)
}

func TestIngestPageRejectsUndecodableCover(t *testing.T) {
	ctx := context.Background()
	rec := record("Song1", "Alpha", "Alice")
	rec.ImageURL = "https://feed.test/img/broken"
	h := newHarness(t, rec)
	h.withAudio(rec.AudioURL)
	h.fetcher.assets[rec.ImageURL] = &httpx.Asset{Data: []byte("<html>"), ContentType: "text/html"}

	rep, err := h.p.IngestPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, rep.Failed, 1)
	require.Equal(t, types.CodeValidation, rep.Failed[0].Code)
	require.False(t, h.blobs.has("audio/song1.mp3"))
}

// cancellingFetcher cancels the run once cancelAt is requested, the way a
// SIGINT lands mid-download.
type cancellingFetcher struct {
	*fakeFetcher
	cancelAt string
	cancel   context.CancelFunc
}

func (f *cancellingFetcher) Fetch(ctx context.Context, url string) (*httpx.Asset, error) {
	if url == f.cancelAt {
		f.cancel()
		return nil, ctx.Err()
	}
	return f.fakeFetcher.Fetch(ctx, url)
}

// strictCursor refuses to touch storage once ctx is done, like the Redis
// client does.
type strictCursor struct {
	*redis.MemoryCursorStore
}

func (c strictCursor) Save(ctx context.Context, feed string, offset int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.MemoryCursorStore.Save(ctx, feed, offset)
}

func TestIngestPageSavesCursorAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := record("Song1", "Alpha", "Alice")
	second := record("Song2", "Alpha", "Alice")
	third := record("Song3", "Alpha", "Alice")
	h := newHarness(t, first, second, third)
	h.withAudio(first.AudioURL)
	h.withAudio(third.AudioURL)
	h.p.fetcher = &cancellingFetcher{fakeFetcher: h.fetcher, cancelAt: second.AudioURL, cancel: cancel}
	h.p.cursor = strictCursor{h.cursor}

	rep, err := h.p.IngestPage(ctx, 0, 10)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, rep.Ingested)
	require.Equal(t, 1, rep.NextOffset)
	require.Empty(t, rep.Failed)

	saved, ok, err := h.cursor.Load(context.Background(), "jamendo")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, saved)
	require.False(t, h.blobs.has("audio/song3.mp3"))
}

func TestIngestPageKeepsCoverSizeWhenResizeDisabled(t *testing.T) {
	ctx := context.Background()
	rec := record("Song1", "Alpha", "Alice")
	rec.ImageURL = "https://feed.test/img/big"
	h := newHarness(t, rec)
	h.p.cfg.CoverMaxDim = 0
	h.withAudio(rec.AudioURL)
	h.fetcher.assets[rec.ImageURL] = &httpx.Asset{Data: pngBytes(t, 64, 32), ContentType: "image/png", Extension: "png"}

	rep, err := h.p.IngestPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Ingested)
	require.Equal(t, "image/png", h.blobs.uploads["covers/tracks/song1.png"])
	require.False(t, h.blobs.has("covers/tracks/song1.jpg"))
}

func TestConfigZeroCoverMaxDimDisablesResize(t *testing.T) {
	p := New(Deps{Log: testutil.Logger(t)}, Config{CoverMaxDim: 0})
	require.Equal(t, 0, p.Config().CoverMaxDim)

	p = New(Deps{Log: testutil.Logger(t)}, Config{CoverMaxDim: -1})
	require.Equal(t, DefaultConfig().CoverMaxDim, p.Config().CoverMaxDim)
}

func TestIngestPageFeedErrorKeepsCursor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.feed.err = types.NewError(types.CodeUpstreamFetch, "jamendo.page", "", "HTTP 502", nil)
	require.NoError(t, h.cursor.Save(ctx, "jamendo", 40))

	_, err := h.p.IngestPage(ctx, 40, 10)
	require.True(t, types.IsCode(err, types.CodeUpstreamFetch))
	saved, _, _ := h.cursor.Load(ctx, "jamendo")
	require.Equal(t, 40, saved)
}

func TestIngestPageWithoutFeedIsConfigurationError(t *testing.T) {
	h := newHarness(t)
	h.p.feed = nil
	_, err := h.p.IngestPage(context.Background(), 0, 10)
	require.True(t, types.IsFatal(err))
}

func TestRunResumesAndRunsPostPasses(t *testing.T) {
	ctx := context.Background()
	recs := []types.FeedTrack{
		record("Song1", "Alpha", "Alice"),
		record("Song2", "Alpha", "Alice", "Bob"),
		record("Song3", "Beta", "Bob"),
	}
	h := newHarness(t, recs...)
	for _, r := range recs {
		h.withAudio(r.AudioURL)
	}
	require.NoError(t, h.cursor.Save(ctx, "jamendo", 1))

	rep, err := h.p.Run(ctx, RunOptions{Offset: -1, Pages: 5, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, h.feed.calls)
	require.Equal(t, 2, rep.Ingested())
	require.Zero(t, rep.Failed())
	require.Equal(t, 2, rep.Inference.Albums)
	require.Equal(t, 2, rep.Inference.Assigned)
	require.Equal(t, 2, rep.Refresh.Updated)
	require.Equal(t, int64(2), rep.Stats.Tracks)
	require.Equal(t, int64(2), rep.Stats.AuthoredAlbums)

	saved, _, _ := h.cursor.Load(ctx, "jamendo")
	require.Equal(t, 3, saved)
}

func TestSeedGenresIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first, err := h.p.SeedGenres(ctx, nil)
	require.NoError(t, err)
	require.Len(t, first.Created, len(DefaultGenres))
	require.Empty(t, first.Existing)

	second, err := h.p.SeedGenres(ctx, []string{"Rock", " Ambient ", ""})
	require.NoError(t, err)
	require.Equal(t, []string{"Ambient"}, second.Created)
	require.Equal(t, []string{"Rock"}, second.Existing)

	var n int64
	require.NoError(t, h.db.Model(&types.Genre{}).Count(&n).Error)
	require.Equal(t, int64(len(DefaultGenres)+1), n)
}

func TestBackfillGenreCovers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	for _, name := range []string{"Hip-Hop", "Jazz", "Pop"} {
		testutil.SeedGenre(t, ctx, h.db, name, nil)
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hip hop.PNG"), pngBytes(t, 8, 8), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Jazz.jpg"), []byte("not an image"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	rep, err := h.p.BackfillCovers(ctx, CoverKindGenre, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"Hip-Hop"}, rep.Updated)
	require.Equal(t, []string{"Pop"}, rep.Missing)
	require.Len(t, rep.Failed, 1)
	require.Equal(t, "Jazz", rep.Failed[0].Name)
	require.Equal(t, types.CodeValidation, rep.Failed[0].Code)
	require.Contains(t, rep.Failed[0].Message, "not an image")

	g, err := h.set.Genre.GetByName(dbctx.Context{Ctx: ctx}, "Hip-Hop")
	require.NoError(t, err)
	require.NotNil(t, g.ImageURL)
	require.Equal(t, "https://cdn.test/genre_cover/covers/genres/hip-hop.png", *g.ImageURL)
}

func TestBackfillTrackCoversDownscales(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.p.cfg.CoverMaxDim = 16
	album := testutil.SeedAlbum(t, ctx, h.db, "Alpha")
	testutil.SeedTrack(t, ctx, h.db, "Song1", "100", album.ID, 1)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Song1.png"), pngBytes(t, 64, 32), 0o644))

	rep, err := h.p.BackfillCovers(ctx, CoverKindTrack, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"Song1"}, rep.Updated)
	require.True(t, h.blobs.has("covers/tracks/song1.jpg"))
	require.Equal(t, "image/jpeg", h.blobs.uploads["covers/tracks/song1.jpg"])
}

func TestBackfillCoversNeedsStorage(t *testing.T) {
	h := newHarness(t)
	h.p.blobs = nil
	_, err := h.p.BackfillCovers(context.Background(), CoverKindGenre, t.TempDir())
	require.True(t, types.IsFatal(err))
}

func TestParseCoverKind(t *testing.T) {
	k, err := ParseCoverKind(" Genre ")
	require.NoError(t, err)
	require.Equal(t, CoverKindGenre, k)
	_, err = ParseCoverKind("album")
	require.True(t, types.IsCode(err, types.CodeValidation))
}

func TestBuildGenrePlaylists(t *testing.T) {
	ctx := context.Background()
	recs := []types.FeedTrack{record("Song1", "Alpha", "Alice"), record("Song2", "Beta", "Bob")}
	recs[1].Genres = []string{"Pop"}
	h := newHarness(t, recs...)
	for _, r := range recs {
		h.withAudio(r.AudioURL)
	}
	_, err := h.p.IngestPage(ctx, 0, 10)
	require.NoError(t, err)
	_, err = h.set.Genre.UpdateImageURL(dbctx.Context{Ctx: ctx}, "Rock", "https://cdn.test/rock.jpg")
	require.NoError(t, err)

	rep, err := h.p.BuildGenrePlaylists(ctx)
	require.NoError(t, err)
	require.Empty(t, rep.Failed)
	require.Equal(t, []PlaylistLine{{Genre: "Rock", Created: true, Appended: 1, Total: 1}}, rep.Playlists)

	again, err := h.p.BuildGenrePlaylists(ctx)
	require.NoError(t, err)
	require.Equal(t, []PlaylistLine{{Genre: "Rock", Created: false, Appended: 0, Total: 1}}, again.Playlists)

	pl, err := h.set.Collection.FindPlaylistByName(dbctx.Context{Ctx: ctx}, "Rock")
	require.NoError(t, err)
	require.NotNil(t, pl)
	require.Equal(t, "https://cdn.test/rock.jpg", pl.CoverURL)
}

func TestIngestPageStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	recs := []types.FeedTrack{record("Song1", "Alpha", "Alice")}
	h := newHarness(t, recs...)
	h.withAudio(recs[0].AudioURL)
	cancel()

	rep, err := h.p.IngestPage(ctx, 0, 10)
	require.True(t, errors.Is(err, context.Canceled))
	require.Zero(t, rep.Ingested)
	require.Equal(t, 0, rep.NextOffset)
	require.False(t, strings.Contains(strings.Join(keys(h.blobs), ","), "song1"))
}

func keys(b *fakeBlobs) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.uploads))
	for k := range b.uploads {
		out = append(out, k)
	}
	return out
}

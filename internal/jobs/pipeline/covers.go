package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/gcp"
	"github.com/echobeat/catalog-seeder/internal/platform/httpx"
	"github.com/echobeat/catalog-seeder/internal/platform/imaging"
	"github.com/echobeat/catalog-seeder/internal/platform/objname"
)

type CoverKind string

const (
	CoverKindGenre CoverKind = "genre"
	CoverKindTrack CoverKind = "track"
)

func ParseCoverKind(raw string) (CoverKind, error) {
	switch CoverKind(strings.ToLower(strings.TrimSpace(raw))) {
	case CoverKindGenre:
		return CoverKindGenre, nil
	case CoverKindTrack:
		return CoverKindTrack, nil
	default:
		return "", types.ValidationError("pipeline.backfill_covers", raw, "cover kind must be genre or track")
	}
}

var coverExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

type BackfillReport struct {
	Kind    CoverKind
	Updated []string
	// Missing lists entities with no matching local file.
	Missing []string
	Failed  []FailedRecord
}

// BackfillCovers matches local image files to genres or tracks by name,
// uploads them and points the entity at the uploaded object. A file matches
// when its base name equals the entity name, compared by slug, so
// "Hip-Hop.jpg" and "hip hop.png" both match genre "Hip-Hop".
func (p *Pipeline) BackfillCovers(ctx context.Context, kind CoverKind, dir string) (BackfillReport, error) {
	const op = "pipeline.backfill_covers"
	rep := BackfillReport{Kind: kind}
	if p.blobs == nil {
		return rep, types.ConfigurationError(op, "object storage is disabled")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("cover.kind", string(kind)))

	files, err := indexCoverFiles(dir)
	if err != nil {
		return rep, types.NewError(types.CodeValidation, op, dir, "cannot read cover directory", err)
	}

	names, err := p.coverTargets(ctx, kind)
	if err != nil {
		return rep, types.Wrap(types.CodePersistence, op, string(kind), err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		path, ok := files[objname.Slug(name)]
		if !ok {
			rep.Missing = append(rep.Missing, name)
			continue
		}
		if err := p.backfillOne(ctx, kind, name, path); err != nil {
			p.log.Warn("Cover backfill failed", "kind", kind, "name", name, "file", path, "error", err)
			rep.Failed = append(rep.Failed, FailedRecord{Name: name, Code: types.CodeOf(err), Message: err.Error()})
			continue
		}
		rep.Updated = append(rep.Updated, name)
	}

	span.SetAttributes(attribute.Int("cover.updated", len(rep.Updated)), attribute.Int("cover.missing", len(rep.Missing)))
	p.log.Info("Cover backfill finished",
		"kind", kind,
		"dir", dir,
		"updated", len(rep.Updated),
		"missing", len(rep.Missing),
		"failed", len(rep.Failed),
	)
	return rep, nil
}

func (p *Pipeline) coverTargets(ctx context.Context, kind CoverKind) ([]string, error) {
	dbc := dbctx.Context{Ctx: ctx}
	switch kind {
	case CoverKindGenre:
		genres, err := p.repos.Genre.ListAll(dbc)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(genres))
		for _, g := range genres {
			out = append(out, g.Name)
		}
		return out, nil
	case CoverKindTrack:
		return p.repos.Track.ListNames(dbc)
	default:
		return nil, fmt.Errorf("unknown cover kind %q", kind)
	}
}

func (p *Pipeline) backfillOne(ctx context.Context, kind CoverKind, name, path string) error {
	const op = "pipeline.backfill_cover"
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.NewError(types.CodeValidation, op, name, "read cover file", err)
	}
	asset := &httpx.Asset{URL: path, Data: raw}
	asset.ContentType, asset.Extension = httpx.Sniff(raw, "")
	if !httpx.IsImage(asset) {
		return types.NewError(types.CodeValidation, op, name, fmt.Sprintf("cover file is %s, not an image", asset.ContentType), nil)
	}
	data, resized, err := imaging.FitWithin(raw, p.cfg.CoverMaxDim)
	if err != nil {
		return types.NewError(types.CodeValidation, op, name, "cover file is not a decodable image", err)
	}
	if resized {
		asset.Data, asset.ContentType, asset.Extension = data, "image/jpeg", "jpg"
	}

	category, prefix := gcp.BucketCategoryGenreCover, "covers/genres"
	if kind == CoverKindTrack {
		category, prefix = gcp.BucketCategoryTrackCover, trackCoverPrefix
	}
	url, err := p.upload(ctx, category, objname.Key(prefix, name, asset.Extension), asset)
	if err != nil {
		return types.Wrap(types.CodeStorage, op, name, err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	var rows int64
	if kind == CoverKindTrack {
		rows, err = p.repos.Track.UpdateCoverURLByName(dbc, name, url)
	} else {
		rows, err = p.repos.Genre.UpdateImageURL(dbc, name, url)
	}
	if err != nil {
		return types.Wrap(types.CodePersistence, op, name, err)
	}
	p.log.Debug("Cover updated", "kind", kind, "name", name, "url", url, "rows", rows)
	return nil
}

// indexCoverFiles maps the slug of every image file's base name to its path.
// When several files share a slug the lexically first path wins.
func indexCoverFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !hasCoverExtension(ext) {
			continue
		}
		key := objname.Slug(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = filepath.Join(dir, e.Name())
	}
	return out, nil
}

func hasCoverExtension(ext string) bool {
	for _, want := range coverExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

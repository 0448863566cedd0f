package pipeline

import (
	"context"

	"github.com/echobeat/catalog-seeder/internal/catalog"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
)

type RunOptions struct {
	// Offset is the first feed offset; negative resumes from the saved cursor.
	Offset int
	Pages  int
	Limit  int
}

type RunReport struct {
	Pages     []PageReport
	Inference catalog.InferenceReport
	Refresh   catalog.RefreshReport
	Stats     Stats
}

func (r RunReport) Ingested() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Ingested
	}
	return n
}

func (r RunReport) Failed() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Failed)
	}
	return n
}

// IngestPages ingests up to opts.Pages feed pages starting at opts.Offset,
// stopping early when the feed is exhausted. A failed page fetch ends the
// loop without an error unless it is fatal or the context is done.
func (p *Pipeline) IngestPages(ctx context.Context, opts RunOptions) ([]PageReport, error) {
	var reports []PageReport
	offset := opts.Offset
	if offset < 0 {
		resumed, err := p.ResumeOffset(ctx)
		if err != nil {
			return nil, err
		}
		offset = resumed
	}
	pages := opts.Pages
	if pages <= 0 {
		pages = 1
	}

	for i := 0; i < pages; i++ {
		page, err := p.IngestPage(ctx, offset, opts.Limit)
		reports = append(reports, page)
		if err != nil {
			if types.IsFatal(err) || ctx.Err() != nil {
				return reports, err
			}
			p.log.Warn("Feed page failed, stopping ingestion", "offset", offset, "error", err)
			break
		}
		offset = page.NextOffset
		if page.Exhausted {
			p.log.Info("Feed exhausted", "offset", offset)
			break
		}
	}
	return reports, nil
}

// Run ingests feed pages, then runs both post-passes over the whole catalog.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	var rep RunReport
	pages, err := p.IngestPages(ctx, opts)
	rep.Pages = pages
	if err != nil {
		return rep, err
	}

	inf, err := p.InferAuthors(ctx)
	if err != nil {
		return rep, err
	}
	rep.Inference = inf

	ref, err := p.RefreshAggregates(ctx)
	if err != nil {
		return rep, err
	}
	rep.Refresh = ref

	stats, err := p.Stats(ctx)
	if err != nil {
		p.log.Warn("Collecting catalog stats failed", "error", err)
	}
	rep.Stats = stats
	return rep, nil
}

package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/echobeat/catalog-seeder/internal/catalog"
)

func (p *Pipeline) InferAuthors(ctx context.Context) (catalog.InferenceReport, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.infer_authors")
	defer span.End()

	rep, err := p.services.Authorship.InferAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "infer authors")
		return rep, err
	}
	span.SetAttributes(
		attribute.Int("albums", rep.Albums),
		attribute.Int("assigned", rep.Assigned),
		attribute.Int("ambiguous", len(rep.Ambiguous)),
	)
	p.log.Info("Authorship inference finished",
		"albums", rep.Albums,
		"assigned", rep.Assigned,
		"already_authored", rep.AlreadyAuthored,
		"authorless", rep.Authorless,
		"ambiguous", len(rep.Ambiguous),
		"failed", rep.Failed,
	)
	return rep, nil
}

func (p *Pipeline) RefreshAggregates(ctx context.Context) (catalog.RefreshReport, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.refresh_aggregates")
	defer span.End()

	rep, err := p.services.Refresher.RefreshAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh aggregates")
		return rep, err
	}
	span.SetAttributes(attribute.Int("collections", rep.Collections), attribute.Int("updated", rep.Updated))
	p.log.Info("Aggregate refresh finished",
		"collections", rep.Collections,
		"updated", rep.Updated,
		"failed", rep.Failed,
		"unparsable_durations", rep.UnparsableDurations,
	)
	return rep, nil
}

package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/echobeat/catalog-seeder/internal/data/aggregates"
	"github.com/echobeat/catalog-seeder/internal/data/repos"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

type RefreshReport struct {
	Collections int
	Updated     int
	Failed      int
	// UnparsableDurations counts track durations that were not integers and
	// contributed 0 seconds.
	UnparsableDurations int
}

// AggregateRefresher rewrites every collection's track count and duration from
// its track positions.
type AggregateRefresher interface {
	RefreshAll(ctx context.Context) (RefreshReport, error)
}

type aggregateRefresher struct {
	log         *logger.Logger
	deps        aggregates.BaseDeps
	collections repos.CollectionRepo
	positions   repos.PositionRepo
}

func NewAggregateRefresher(deps aggregates.BaseDeps, collections repos.CollectionRepo, positions repos.PositionRepo) AggregateRefresher {
	return &aggregateRefresher{
		log:         deps.Log.With("service", "AggregateRefresher"),
		deps:        deps,
		collections: collections,
		positions:   positions,
	}
}

func (s *aggregateRefresher) RefreshAll(ctx context.Context) (RefreshReport, error) {
	const op = "catalog.refresh_aggregates"
	var report RefreshReport

	colls, err := s.collections.ListAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return report, aggregates.MapError(op, "", err)
	}
	report.Collections = len(colls)

	for _, coll := range colls {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		var unparsable int
		err := aggregates.ExecuteWrite(ctx, s.deps, op, coll.Name, func(dbc dbctx.Context) error {
			unparsable = 0
			rows, err := s.positions.Durations(dbc, coll.ID)
			if err != nil {
				return err
			}
			total := 0
			for _, row := range rows {
				secs, ok := parseDuration(row.Duration)
				if !ok {
					unparsable++
					s.log.Warn("Track duration is not an integer, counting 0",
						"collection", coll.Name, "track", row.Name, "track_id", row.TrackID, "duration", row.Duration)
				}
				total += secs
			}
			return s.collections.UpdateAggregates(dbc, coll.ID, len(rows), total)
		})
		if err != nil {
			report.Failed++
			s.log.Warn("Collection refresh skipped", "collection", coll.Name, "collection_id", coll.ID, "error", err)
			continue
		}
		report.Updated++
		report.UnparsableDurations += unparsable
	}

	s.log.Info("Collection aggregates refreshed",
		"collections", report.Collections,
		"updated", report.Updated,
		"failed", report.Failed,
		"unparsable_durations", report.UnparsableDurations,
	)
	return report, nil
}

func parseDuration(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

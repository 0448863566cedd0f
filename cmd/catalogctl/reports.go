package main

import (
	"fmt"
	"strconv"

	"github.com/echobeat/catalog-seeder/internal/catalog"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/jobs/pipeline"
)

const stampLayout = "2006-01-02 15:04"

func failedTable(failed []pipeline.FailedRecord) *reportTable {
	t := newReportTable(textCol("Name"), textCol("Code"), textCol("Message"))
	for _, f := range failed {
		t.add(f.Name, string(f.Code), f.Message)
	}
	return t
}

func renderPageReport(rep pipeline.PageReport, colorize bool) []string {
	next := strconv.Itoa(rep.NextOffset)
	if rep.Exhausted {
		next += " (feed exhausted)"
	}
	return newSummary(fmt.Sprintf("Feed page at offset %d", rep.Offset)).
		count("Fetched", rep.Fetched).
		done("Ingested", rep.Ingested).
		failed(len(rep.Failed)).
		add(markInfo, "Next offset", next).
		table(failedTable(rep.Failed)).
		render(colorize)
}

func renderInferenceReport(rep catalog.InferenceReport, colorize bool) []string {
	s := newSummary("Album authorship").
		count("Albums", rep.Albums).
		done("Assigned", rep.Assigned).
		count("Already authored", rep.AlreadyAuthored).
		count("Authorless", rep.Authorless).
		failed(rep.Failed)
	if len(rep.Ambiguous) > 0 {
		s.names("Ambiguous", rep.Ambiguous, true)
	}
	return s.render(colorize)
}

func renderRefreshReport(rep catalog.RefreshReport, colorize bool) []string {
	s := newSummary("Collection aggregates").
		count("Collections", rep.Collections).
		done("Updated", rep.Updated).
		failed(rep.Failed)
	if rep.UnparsableDurations > 0 {
		s.add(markAttention, "Bad durations", strconv.Itoa(rep.UnparsableDurations))
	}
	return s.render(colorize)
}

func renderSeedReport(rep pipeline.SeedReport, colorize bool) []string {
	return newSummary("Genres").
		names("Created", rep.Created, false).
		names("Existing", rep.Existing, false).
		failed(len(rep.Failed)).
		table(failedTable(rep.Failed)).
		render(colorize)
}

func renderBackfillReport(rep pipeline.BackfillReport, colorize bool) []string {
	return newSummary(fmt.Sprintf("%s covers", rep.Kind)).
		done("Updated", len(rep.Updated)).
		names("No local file", rep.Missing, true).
		failed(len(rep.Failed)).
		table(failedTable(rep.Failed)).
		render(colorize)
}

func renderPlaylistReport(rep pipeline.PlaylistReport, colorize bool) []string {
	s := newSummary("Genre playlists")
	if len(rep.Playlists) == 0 {
		s.add(markAttention, "Playlists", "no genre has an image")
	}
	t := newReportTable(textCol("Genre"), textCol("Created"), numCol("Appended"), numCol("Tracks")).withTotals("all genres")
	for _, pl := range rep.Playlists {
		created := "no"
		if pl.Created {
			created = "yes"
		}
		t.add(pl.Genre, created, pl.Appended, pl.Total)
	}
	return s.table(t).table(failedTable(rep.Failed)).render(colorize)
}

func renderStats(st pipeline.Stats, colorize bool) []string {
	t := newReportTable(textCol("Table"), numCol("Rows"))
	t.add("artist", st.Artists)
	t.add("genre", st.Genres)
	t.add("album", st.Albums)
	t.add("album_author", st.AuthoredAlbums)
	t.add("playlist", st.Playlists)
	t.add("track", st.Tracks)
	t.add("ingest_failure", st.IngestFailures)
	return newSummary("Catalog").table(t).render(colorize)
}

func renderFailures(rows []*types.IngestFailure, colorize bool) []string {
	s := newSummary("Skipped feed records")
	if len(rows) == 0 {
		return s.add(markDone, "Failures", "none").render(colorize)
	}
	t := newReportTable(textCol("When"), textCol("Track"), textCol("Operation"), textCol("Code"), textCol("Message"))
	for _, f := range rows {
		t.add(f.CreatedAt.Local().Format(stampLayout), f.TrackName, f.Operation, f.Code, f.Message)
	}
	return s.add(markAttention, "Failures", strconv.Itoa(len(rows))).table(t).render(colorize)
}

func renderRunReport(rep pipeline.RunReport, colorize bool) []string {
	var lines []string
	for _, page := range rep.Pages {
		lines = append(lines, renderPageReport(page, colorize)...)
	}
	lines = append(lines, renderInferenceReport(rep.Inference, colorize)...)
	lines = append(lines, renderRefreshReport(rep.Refresh, colorize)...)
	lines = append(lines, renderStats(rep.Stats, colorize)...)
	totals := fmt.Sprintf("%d ingested, %d skipped over %d page(s)", rep.Ingested(), rep.Failed(), len(rep.Pages))
	return append(lines, statusLine(failureMark(rep.Failed()), "Run", 0, totals, colorize))
}

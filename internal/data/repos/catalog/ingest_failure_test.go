package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/datatypes"

	"github.com/echobeat/catalog-seeder/internal/data/repos/testutil"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
)

func TestIngestFailureRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewIngestFailureRepo(db, testutil.Logger(t))

	payload, _ := json.Marshal(types.FeedTrack{Name: "Song1", Artists: []string{"Alice"}, Album: "Alpha"})
	row := &types.IngestFailure{
		TrackName: "Song1",
		Operation: "pipeline.upload",
		Code:      string(types.CodeStorage),
		Message:   "bucket unavailable",
		Payload:   datatypes.JSON(payload),
	}
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n, err := repo.Count(dbc); err != nil || n != 1 {
		t.Fatalf("Count: n=%d err=%v", n, err)
	}
	rows, err := repo.ListRecent(dbc, 0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListRecent: len=%d err=%v", len(rows), err)
	}
	var back types.FeedTrack
	if err := json.Unmarshal(rows[0].Payload, &back); err != nil || back.Album != "Alpha" {
		t.Fatalf("payload: %+v err=%v", back, err)
	}
}

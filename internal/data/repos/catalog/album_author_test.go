package catalog

import (
	"context"
	"testing"

	"github.com/echobeat/catalog-seeder/internal/data/repos/testutil"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
)

func TestAlbumAuthorRepoNeverOverwrites(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAlbumAuthorRepo(db, testutil.Logger(t))

	album := testutil.SeedAlbum(t, ctx, tx, "Alpha")
	alice := testutil.SeedArtist(t, ctx, tx, "Alice")
	bob := testutil.SeedArtist(t, ctx, tx, "Bob")

	if ok, err := repo.Exists(dbc, album.ID); err != nil || ok {
		t.Fatalf("Exists before: ok=%v err=%v", ok, err)
	}
	created, err := repo.Create(dbc, &types.AlbumAuthor{AlbumID: album.ID, ArtistID: alice.ID})
	if err != nil || !created {
		t.Fatalf("Create: created=%v err=%v", created, err)
	}
	created, err = repo.Create(dbc, &types.AlbumAuthor{AlbumID: album.ID, ArtistID: bob.ID})
	if err != nil || created {
		t.Fatalf("Create second: created=%v err=%v", created, err)
	}
	got, err := repo.Get(dbc, album.ID)
	if err != nil || got == nil || got.ArtistID != alice.ID {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	if ok, err := repo.Exists(dbc, album.ID); err != nil || !ok {
		t.Fatalf("Exists after: ok=%v err=%v", ok, err)
	}
}

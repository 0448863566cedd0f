package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/echobeat/catalog-seeder/internal/data/repos/testutil"
	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
)

func TestCreditRepoLinksAreIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCreditRepo(db, testutil.Logger(t))

	alice := testutil.SeedArtist(t, ctx, tx, "Alice")
	rock := testutil.SeedGenre(t, ctx, tx, "Rock", nil)
	song := testutil.SeedTrack(t, ctx, tx, "Song1", "200", uuid.Nil, 0)

	for i := 0; i < 2; i++ {
		if err := repo.LinkArtists(dbc, song.ID, []uuid.UUID{alice.ID, alice.ID}); err != nil {
			t.Fatalf("LinkArtists pass %d: %v", i, err)
		}
		if err := repo.LinkGenres(dbc, song.ID, []uuid.UUID{rock.ID}); err != nil {
			t.Fatalf("LinkGenres pass %d: %v", i, err)
		}
	}

	var artists []uuid.UUID
	if err := tx.Model(&types.ArtistTrack{}).Where("track_id = ?", song.ID).Pluck("artist_id", &artists).Error; err != nil || len(artists) != 1 || artists[0] != alice.ID {
		t.Fatalf("artist links: got=%v err=%v", artists, err)
	}
	var genres []uuid.UUID
	if err := tx.Model(&types.GenreTrack{}).Where("track_id = ?", song.ID).Pluck("genre_id", &genres).Error; err != nil || len(genres) != 1 || genres[0] != rock.ID {
		t.Fatalf("genre links: got=%v err=%v", genres, err)
	}
	if err := repo.LinkArtists(dbc, song.ID, nil); err != nil {
		t.Fatalf("LinkArtists empty: %v", err)
	}
}

func TestCreditRepoArtistCoverage(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCreditRepo(db, testutil.Logger(t))

	album := testutil.SeedAlbum(t, ctx, tx, "Beta")
	alice := testutil.SeedArtist(t, ctx, tx, "Alice")
	bob := testutil.SeedArtist(t, ctx, tx, "Bob")
	s3 := testutil.SeedTrack(t, ctx, tx, "Song3", "100", album.ID, 1)
	s4 := testutil.SeedTrack(t, ctx, tx, "Song4", "100", album.ID, 2)
	testutil.SeedCredit(t, ctx, tx, s3.ID, alice.ID)
	testutil.SeedCredit(t, ctx, tx, s3.ID, bob.ID)
	testutil.SeedCredit(t, ctx, tx, s4.ID, bob.ID)

	got, err := repo.ArtistCoverage(dbc, album.ID)
	if err != nil {
		t.Fatalf("ArtistCoverage: %v", err)
	}
	want := []ArtistCoverage{
		{ArtistID: alice.ID, Name: "Alice", Tracks: 1},
		{ArtistID: bob.ID, Name: "Bob", Tracks: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("ArtistCoverage: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ArtistCoverage[%d]: want=%+v got=%+v", i, want[i], got[i])
		}
	}

	empty, err := repo.ArtistCoverage(dbc, testutil.SeedAlbum(t, ctx, tx, "Empty").ID)
	if err != nil || len(empty) != 0 {
		t.Fatalf("ArtistCoverage empty: got=%v err=%v", empty, err)
	}
}

// Command catalogctl seeds and maintains the music catalog: it ingests feed
// pages, infers album authors, refreshes collection aggregates, seeds genres,
// backfills cover art and builds genre playlists.
package main

// Package catalog defines the persisted music-catalog rows, the inbound feed record,
// and the coded error type shared by the ingestion pipeline.
//
// Artists, genres and albums are matched by natural key (name). Album names are
// assumed unique across collections of kind album; this mirrors the upstream
// dataset and is a known fragility.
package catalog

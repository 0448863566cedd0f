// Package catalog is the ingestion core: it resolves shared entities, places
// tracks on albums and keeps derived album data consistent.
//
// Every write goes through aggregates.ExecuteWrite so that one track, one
// album's authorship decision or one collection refresh commits atomically.
// Nothing here reads the process environment; callers pass a Config.
package catalog

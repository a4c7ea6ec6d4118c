// Package models defines the domain types shared by the ytsync pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline values, created and consumed within a single run:
//   - [SourceEntry] : one raw title from the source playlist with its position
//   - [Hypothesis] : the parsed (artist, track) guess for a title
//   - [SearchQuery] : the catalog query derived from a hypothesis
//   - [Candidate] : a single catalog search hit
//   - [SearchResult] : the resolved catalog id (or none) for a query
//   - [Result] : the final classification of a source entry, as written to the ledgers
//
// 2. Persistent entities:
//   - [Run] : a reconciliation run with its per-status counts
//
// Persistent entities implement [Model]; [Repository] defines the storage operations they need.
package models

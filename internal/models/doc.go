// Package models defines the domain entities shared by the reconciliation engine and its collaborators.
//
// The package contains three categories of types:
//
// 1. Playlist state: the working playlist and its entries
//   - [Playlist] : Ordered entries plus a free-text display name
//   - [TrackEntry] : One entry with its [ValidationState] and resolution data
//
// 2. Catalog contracts: typed shapes produced once at the catalog boundary
//   - [CandidateMatch] : A catalog search hit with display metadata
//   - [ResolvedMatch] : The identity fields of the chosen candidate
//   - [PlaylistSummary] : A provider playlist listing row
//
// 3. Recommendation contracts
//   - [Preferences] : What the user asked for (tempo, mood, genre, vocals)
//   - [RecommendationRecord] : One loosely specified title/artist suggestion
//
// Nothing in this package performs I/O; transitions live in the playlist package.
package models

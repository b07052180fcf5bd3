// Package repositories implements SQLite persistence for the state the CLI keeps between invocations.
//
// Key Implementations:
//   - [DraftRepository] : Working playlists stored as JSON entry lists, one of them active
//   - [TokenRepository] : OAuth tokens per provider, refreshed tokens written back
//
// Drafts support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Nothing here caches catalog search results; every validation searches the catalog again.
package repositories

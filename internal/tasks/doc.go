// Package tasks orchestrates reconciliation of recommended tracks against the catalog with progress reporting.
//
// # Core Operations
//
//  1. [Recommend] : Generate recommendations and append them as Unvalidated entries
//  2. [Reconciler.ValidateOne] / [Reconciler.ValidateEntry] : Validate a single entry
//     - Marks the entry Validating, searches the catalog for "<title> <artist>"
//     - Resolves the candidates and applies the outcome
//  3. [Reconciler.ValidateAll] / [Reconciler.ValidateSession] : Validate every eligible entry in playlist order
//     - Sequential by default
//     - With Concurrency > 1 searches are prefetched through an errgroup, but outcomes are still applied in
//     playlist order
//
// # Failure Handling
//
// Catalog failures become the entry error "Validation failed" and are logged. Authorization failures are also
// returned to the caller (and flagged on [Summary]) so the session owner can re-authenticate; a batch stops at
// the first one and leaves the rest Unvalidated. Cancelling the context abandons in-flight searches and returns
// their entries to Unvalidated.
//
// # Session
//
// [Session] holds the only mutable playlist handle. Transitions are pure functions from the playlist package
// applied through [Session.Apply]; subscribers receive the latest snapshot after each change.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks

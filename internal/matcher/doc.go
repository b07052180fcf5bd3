// Package matcher turns loosely specified recommendations into catalog queries and classifies search results.
//
// # Query Building
//
// [BuildQuery] concatenates a name and artist with a single space. [SearchOptions.Qualify] appends the
// optional genre: and year: qualifiers understood by the catalog search endpoint.
//
// # Resolution
//
// [Resolve] classifies a candidate list as one of:
//   - [NoMatch] : the catalog returned nothing
//   - [ExactMatch] : the first candidate whose name and one of whose artists equal the record case-insensitively
//   - [MultipleMatches] : everything else, including a single non-exact candidate
//
// No fuzzy scoring takes part in resolution. [BestHint] ranks candidates for display only.
package matcher

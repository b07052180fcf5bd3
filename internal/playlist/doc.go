// Package playlist implements the working playlist as pure state transitions.
//
// Every function takes a [models.Playlist] and returns a new one; inputs are never mutated, so callers can swap
// their handle atomically and readers never observe a partial update.
//
// # Structural Operations
//
// [Append], [Remove], [Reorder] and [Rename] apply regardless of validation state and never fail.
// Unknown ids are absorbed as no-ops.
//
// # Validation Lifecycle
//
//	Unvalidated --validate--> Validating
//	Unvalidated|Validating --exact--> Validated
//	Unvalidated|Validating --candidates--> NeedsSelection
//	Unvalidated|Validating --fail--> Error
//	Validating --cancel--> Unvalidated
//	NeedsSelection --select--> Validated
//	NeedsSelection --skip--> Error ("No match selected")
//	Validated|NeedsSelection|Error --reset--> Unvalidated
//
// [Transition] enforces the table and reports [shared.ErrEntryNotFound] or [shared.ErrIllegalTransition].
// The named helpers ([Select], [Skip], ...) are lenient and return the input unchanged instead.
package playlist

// Package grouping ties extraction results, manual edits and matcher sweeps
// to the Name Allocator.
//
// Every change to an item's group goes through one path: under the
// allocation lock the item's new group and provisional name are written
// together, then the group it left and the group it joined are resequenced
// so names stay consistent with capture order. A valid code is authoritative
// and bypasses the matcher. Manual edits are always honoured, with values
// that fail the code rules tagged invalid_group. Ungrouped items are picked
// up by sweeps: AutoGroup runs the weighted strategy over fresh items and
// InferUngrouped runs the strict strategy over items left unmatched.
//
// Sweeps score targets concurrently against a snapshot of grouped items and
// apply accepted matches one at a time, rechecking each target under the
// lock. Items grouped in one round become candidates in the next.
//
// Every observable change is pushed to the configured Notifier as a
// broadcast.Delta.
package grouping

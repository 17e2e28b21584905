// Package naming computes the file names carried by grouped items.
//
// The Allocator owns an explicit name to item ID index and one coarse lock.
// AssignName derives a name from a group key and the item's origin
// extension: the first member gets the bare group token, later members get a
// "_N" suffix once some sibling carries a code, and any pool-wide collision is
// resolved with a counter starting at 2. ResequenceGroup recomputes every
// member's name in capture order so rerunning it on an unchanged pool
// reproduces the same names.
//
// Callers that need several naming steps to be atomic (write a new group,
// then resequence the old and new groups) run them inside Do, which holds the
// allocation lock for the duration of the callback.
package naming

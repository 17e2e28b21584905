// Package matcher decides which existing group, if any, an ungrouped item
// should inherit.
//
// Two strategies share one interface. StrictStrategy backs batch inference
// over explicitly unmatched items: a candidate is accepted only when the
// description gate (at least two shared meaningful words) and the color
// family check both pass, and the most recently captured accepted candidate
// wins. WeightedStrategy backs proactive auto-grouping of items that were
// never coded: description, color overlap, and time proximity are summed with
// weights and the highest score above a threshold wins, so one strong signal
// can carry a weaker one.
//
// Both strategies only consider candidates captured strictly inside the
// configured window of the target. Every function here is a pure query over
// the values passed in and is safe for concurrent use.
package matcher

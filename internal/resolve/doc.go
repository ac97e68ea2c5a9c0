// Package resolve maps a resource id (an aircraft, a flight) to its owning
// club through a caller-supplied lookup, with an optional Redis read-through
// cache in front.
//
// Club-admin authorization sometimes receives only a resource id; the owning
// club must be resolved before the evaluator can run. Resolution is the one
// store lookup on the access path, so results are cached aggressively.
package resolve

// Package dedup remembers which feed links have already been submitted.
//
// LinkStore keeps the set in memory and rewrites a JSON snapshot on every
// fresh insert. Responder serializes all access to a Store through a request
// channel so check-then-mark never interleaves; Ask performs one round trip
// from the client side.
//
// A crash between the in-memory mark and the snapshot write can make a link
// fresh again after restart. Submission is therefore at-least-once.
package dedup

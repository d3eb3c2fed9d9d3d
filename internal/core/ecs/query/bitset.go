// Package query implements the signature matching SPEC_FULL.md §4.3
// describes: a fast 64-bit mask path for the common case of fewer than 64
// registered component types, with the driver-column scan in ecs.Query as
// the path of record for every case (including >64 types).
package query

// ID is the small integer a Signature indexes by bit position. It is a
// standalone type rather than ecs.TypeID so this package carries no
// dependency on package ecs (which itself imports query) — ecs converts its
// TypeID to ID at the call sites in query.go.
type ID uint32

// Signature is a bitmask over ID values in [0,64). Because ecs.TypeID is
// assigned sequentially at registration time (ecs.componentRegistry), the
// ID itself is the bit position — there is no separate name→position table
// to keep in sync, unlike the fixed string-keyed map this package used to
// carry.
type Signature uint64

func NewSignature(ids ...ID) Signature {
	var s Signature
	for _, id := range ids {
		s = s.Set(id)
	}
	return s
}

func (s Signature) Set(id ID) Signature {
	if id >= 64 {
		return s
	}
	return s | (1 << id)
}

func (s Signature) Clear(id ID) Signature {
	if id >= 64 {
		return s
	}
	return s &^ (1 << id)
}

func (s Signature) Has(id ID) bool {
	if id >= 64 {
		return false
	}
	return s&(1<<id) != 0
}

func (s Signature) HasAll(other Signature) bool { return s&other == other }

func (s Signature) Intersects(other Signature) bool { return s&other != 0 }

func (s Signature) Equals(other Signature) bool { return s == other }

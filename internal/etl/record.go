package etl

// ── Record ─────────────────────────────────────────────────
// Intermediate data formats flowing through one tick.
// RawRecord comes out of the catalog API, Row goes into the destination.

// Credential is the opaque bearer value returned by the catalog login.
// It lives for exactly one tick.
type Credential string

// RawRecord is one untransformed item from an entity collection.
// Reading a missing key yields nil.
type RawRecord map[string]any

// Row is a fixed-arity tuple whose positions match the destination
// statement's placeholders one to one.
type Row []any

// ID returns the leading identifier of the row, or nil for an empty row.
func (r Row) ID() any {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

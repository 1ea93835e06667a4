package etl

// ── Mapper ─────────────────────────────────────────────────
// A Mapper flattens one RawRecord into one Row. Mappers are pure and total:
// a missing field becomes nil in its position and values are passed through
// untouched. Type checking is left to the destination column types.

// Mapper converts a single record into a positional row.
type Mapper func(RawRecord) Row

// FieldMapper returns a Mapper that reads fields in the given order.
func FieldMapper(fields []string) Mapper {
	fields = append([]string(nil), fields...)
	return func(rec RawRecord) Row {
		row := make(Row, len(fields))
		for i, f := range fields {
			row[i] = rec[f]
		}
		return row
	}
}

// MapAll applies m to every record, preserving order.
func MapAll(records []RawRecord, m Mapper) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, m(rec))
	}
	return rows
}

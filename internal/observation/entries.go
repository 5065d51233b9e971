package observation

// KeyValue is one pair of a flattened wire map. Value is a string, a number
// or nil; nil marks a removed key.
type KeyValue struct {
	Key   string
	Value any
}

// TableRow is one flattened table entry as read from or written to the wire.
type TableRow struct {
	Key     string
	Removed bool
	Cells   []KeyValue
}

// BuildDataSetEntries builds DataSet entries from flattened pairs in their
// iteration order. The first occurrence of a key wins and later duplicates are
// dropped silently.
func BuildDataSetEntries(pairs []KeyValue) []DataSetEntry {
	if len(pairs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(pairs))
	entries := make([]DataSetEntry, 0, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p.Key]; dup {
			continue
		}
		seen[p.Key] = struct{}{}

		text, removed := valueText(p.Value)
		entries = append(entries, DataSetEntry{Key: p.Key, Value: text, Removed: removed})
	}
	return entries
}

// DataSetPairs flattens entries for the wire. Numeric-looking values become
// float64 and removed entries become nil.
func DataSetPairs(entries []DataSetEntry) []KeyValue {
	if len(entries) == 0 {
		return nil
	}
	pairs := make([]KeyValue, 0, len(entries))
	for _, e := range entries {
		if e.Removed {
			pairs = append(pairs, KeyValue{Key: e.Key})
			continue
		}
		pairs = append(pairs, KeyValue{Key: e.Key, Value: wireValue(e.Value)})
	}
	return pairs
}

// BuildTableEntries builds Table entries from flattened rows. Duplicate row
// keys and duplicate cell keys within a row keep their first occurrence.
func BuildTableEntries(rows []TableRow) []TableEntry {
	if len(rows) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(rows))
	entries := make([]TableEntry, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.Key]; dup {
			continue
		}
		seen[row.Key] = struct{}{}

		entry := TableEntry{Key: row.Key, Removed: row.Removed}
		if !row.Removed {
			for _, c := range BuildDataSetEntries(row.Cells) {
				entry.Cells = append(entry.Cells, TableCell(c))
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// TablePairs flattens table entries for the wire. Entries without cells are
// dropped unless they are removal tombstones.
func TablePairs(entries []TableEntry) []TableRow {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]TableRow, 0, len(entries))
	for _, e := range entries {
		if e.Removed {
			rows = append(rows, TableRow{Key: e.Key, Removed: true})
			continue
		}
		if len(e.Cells) == 0 {
			continue
		}
		cells := make([]DataSetEntry, len(e.Cells))
		for i, c := range e.Cells {
			cells[i] = DataSetEntry(c)
		}
		rows = append(rows, TableRow{Key: e.Key, Cells: DataSetPairs(cells)})
	}
	return rows
}

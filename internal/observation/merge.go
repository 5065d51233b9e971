package observation

// MergeDataSet applies a partial DataSet update to the current state. New keys
// are appended, existing keys are updated in place and tombstones remove the
// key. The merged set never carries tombstones.
func MergeDataSet(current, update DataSet) DataSet {
	if update.Unavailable {
		return DataSet{Unavailable: true}
	}

	merged := make([]DataSetEntry, 0, len(current.Entries)+len(update.Entries))
	index := make(map[string]int, len(current.Entries))
	if !current.Unavailable {
		for _, e := range current.Entries {
			if e.Removed {
				continue
			}
			index[e.Key] = len(merged)
			merged = append(merged, e)
		}
	}

	removed := map[string]bool{}
	for _, e := range update.Entries {
		if e.Removed {
			removed[e.Key] = true
			continue
		}
		delete(removed, e.Key)
		if i, ok := index[e.Key]; ok {
			merged[i].Value = e.Value
			continue
		}
		index[e.Key] = len(merged)
		merged = append(merged, e)
	}

	return DataSet{Entries: compactEntries(merged, removed)}
}

// MergeTable applies a Table update. Entries are replaced as a whole; a
// removed entry deletes the row.
func MergeTable(current, update Table) Table {
	if update.Unavailable {
		return Table{Unavailable: true}
	}

	merged := make([]TableEntry, 0, len(current.Entries)+len(update.Entries))
	index := make(map[string]int, len(current.Entries))
	if !current.Unavailable {
		for _, e := range current.Entries {
			if e.Removed {
				continue
			}
			index[e.Key] = len(merged)
			merged = append(merged, e)
		}
	}

	removed := map[string]bool{}
	for _, e := range update.Entries {
		if e.Removed {
			removed[e.Key] = true
			continue
		}
		delete(removed, e.Key)
		cells := make([]TableCell, 0, len(e.Cells))
		for _, c := range e.Cells {
			if !c.Removed {
				cells = append(cells, c)
			}
		}
		entry := TableEntry{Key: e.Key, Cells: cells}
		if i, ok := index[e.Key]; ok {
			merged[i] = entry
			continue
		}
		index[e.Key] = len(merged)
		merged = append(merged, entry)
	}

	out := merged[:0]
	for _, e := range merged {
		if !removed[e.Key] {
			out = append(out, e)
		}
	}
	return Table{Entries: out}
}

func compactEntries(entries []DataSetEntry, removed map[string]bool) []DataSetEntry {
	if len(removed) == 0 {
		return entries
	}
	out := entries[:0]
	for _, e := range entries {
		if !removed[e.Key] {
			out = append(out, e)
		}
	}
	return out
}

// MergeObservation folds update into the current observation of the same
// DataItem and returns the new current value. A reset, a change of
// representation or a missing current value replaces the state outright.
func MergeObservation(current, update *Observation) *Observation {
	if update == nil {
		return current
	}
	merged := *update
	if current == nil || update.ResetTriggered != "" {
		return &merged
	}

	switch up := update.Payload.(type) {
	case DataSet:
		if cur, ok := current.Payload.(DataSet); ok {
			merged.Payload = MergeDataSet(cur, up)
		}
	case Table:
		if cur, ok := current.Payload.(Table); ok {
			merged.Payload = MergeTable(cur, up)
		}
	}
	return &merged
}

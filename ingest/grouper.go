package ingest

// Group is the set of execution records sharing one group key.
type Group struct {
	Key     string
	Records []ExecutionRecord
}

// GroupRecords buckets records by GroupKey in first-seen key order.
// Records without a key are returned separately, in input order.
func GroupRecords(records []ExecutionRecord) (groups []Group, ungrouped []ExecutionRecord) {
	index := make(map[string]int)

	for _, r := range records {
		key := r.GroupKey()
		if key == "" {
			ungrouped = append(ungrouped, r)
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	return groups, ungrouped
}

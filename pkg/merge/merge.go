// Package merge reconciles newly extracted college cutoff data into the
// canonical per-round store documents.
//
// The merge is additive-only: keys already present in the target are never
// touched, new keys are copied verbatim from the source.
package merge

import "github.com/capscope/capscope/pkg/store"

// Result lists the keys a merge inserted and the ones it skipped because the
// target already had them. Both are in source order.
type Result struct {
	Inserted []string
	Skipped  []string
}

// Changed reports whether the merge inserted anything.
func (r Result) Changed() bool {
	return len(r.Inserted) > 0
}

// Merge inserts into target every source key the target does not have yet.
// source is not modified.
func Merge(source, target *store.Store) Result {
	var res Result
	for _, key := range source.Keys() {
		if target.Has(key) {
			res.Skipped = append(res.Skipped, key)
			continue
		}
		value, _ := source.Get(key)
		target.Set(key, value)
		res.Inserted = append(res.Inserted, key)
	}
	return res
}

package repotest

import "sort"

func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}

// sortNewest orders by created_at then id, both descending.
func sortNewest[T any](items []T, key func(T) (int64, int64)) {
	sort.Slice(items, func(i, j int) bool {
		ci, ii := key(items[i])
		cj, ij := key(items[j])
		if ci != cj {
			return ci > cj
		}
		return ii > ij
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

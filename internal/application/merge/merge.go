// Package merge holds the only conflict rule the sync core applies: the
// version processed last wins. There is no timestamp or vector clock
// comparison anywhere.
package merge

// Identified is anything keyed by a string id
type Identified interface {
	GetID() string
}

// Resolve picks the surviving version of a record seen twice
func Resolve[T any](existing, incoming T) T {
	return incoming
}

// ByID merges overlay into base keyed by id. Records only in base survive,
// records in both resolve to the overlay version, and order follows base
// with overlay-only records appended in their original order.
func ByID[T Identified](base, overlay []T) []T {
	out := make([]T, 0, len(base)+len(overlay))
	index := make(map[string]int, len(base)+len(overlay))

	for _, r := range base {
		if i, ok := index[r.GetID()]; ok {
			out[i] = Resolve(out[i], r)
			continue
		}
		index[r.GetID()] = len(out)
		out = append(out, r)
	}
	for _, r := range overlay {
		if i, ok := index[r.GetID()]; ok {
			out[i] = Resolve(out[i], r)
			continue
		}
		index[r.GetID()] = len(out)
		out = append(out, r)
	}
	return out
}

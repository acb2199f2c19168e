package report

import "sort"

// SortKeys orders the keys of a flat count map by value. Order "asc" sorts
// ascending, anything else descending. Equal values fall back to the key
// ascending so output is deterministic.
func SortKeys(data map[string]int, order string) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sortByValue(keys, order, func(key string) int { return data[key] })
	return keys
}

// SortKeysMulti orders the keys of a stacked map by the sum of each inner
// row, with the same ordering rules as SortKeys.
func SortKeysMulti(data map[string]map[string]int, order string) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sortByValue(keys, order, func(key string) int {
		sum := 0
		for _, count := range data[key] {
			sum += count
		}
		return sum
	})
	return keys
}

func sortByValue(keys []string, order string, value func(string) int) {
	asc := order == "asc"
	sort.Slice(keys, func(i, j int) bool {
		vi, vj := value(keys[i]), value(keys[j])
		if vi != vj {
			if asc {
				return vi < vj
			}
			return vi > vj
		}
		return keys[i] < keys[j]
	})
}

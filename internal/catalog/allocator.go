package catalog

import (
	"sort"
	"strconv"
)

// NextAvailableCode returns the smallest positive integer not currently
// used as a numeric code. Non-numeric codes are ignored. The result is a
// suggestion only; an admin-entered code always wins.
func NextAvailableCode(codes []string) int {
	var numeric []int
	for _, code := range codes {
		n, err := strconv.Atoi(code)
		if err != nil || n <= 0 {
			continue
		}
		numeric = append(numeric, n)
	}
	if len(numeric) == 0 {
		return 1
	}

	sort.Ints(numeric)
	for i, n := range numeric {
		if n != i+1 {
			return i + 1
		}
	}
	return numeric[len(numeric)-1] + 1
}

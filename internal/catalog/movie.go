package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// Movie is a single catalog record. Code is the unique lookup key,
// FileID is the opaque Telegram file reference of the stored media.
type Movie struct {
	Code    string `json:"code" dynamodbav:"-"`
	FileID  string `json:"fileId" dynamodbav:"file_id"`
	Name    string `json:"name" dynamodbav:"name"`
	AddedAt int64  `json:"addedAt" dynamodbav:"added_at"`
}

// NormalizeCode converts user input into canonical code form.
func NormalizeCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SortCodes orders codes for listing: numeric codes first in numeric
// order, then the rest alphabetically.
func SortCodes(codes []string) []string {
	sorted := make([]string, len(codes))
	copy(sorted, codes)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				return na < nb
			}
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return a < b
		}
	})
	return sorted
}

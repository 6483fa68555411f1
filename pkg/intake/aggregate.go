package intake

import (
	"math"
	"sort"
	"strings"
)

// Aggregate filters records by q and sums seats per year.
//
// A record matches when its choice code equals q.BranchCode or ends with it,
// its category equals q.Category ignoring case (or q.Category is empty), and
// its gender equals the normalized q.Gender exactly (or that is empty).
// Matching records without a year are counted in MatchCount but not grouped.
// Years are sorted as strings. records is never modified.
func Aggregate(records []Record, q Query) Result {
	res := Result{Years: []string{}, Seats: []int{}}
	if q.BranchCode == "" {
		return res
	}

	gender := NormalizeGender(q.Gender)
	perYear := make(map[string]int)

	for i := range records {
		r := &records[i]
		if !matches(r, q.BranchCode, q.Category, gender) {
			continue
		}
		res.MatchCount++
		if r.Year == "" {
			continue
		}
		perYear[r.Year] += ParseSeats(r.Seats)
	}

	for y := range perYear {
		res.Years = append(res.Years, y)
	}
	sort.Strings(res.Years)
	for _, y := range res.Years {
		res.Seats = append(res.Seats, perYear[y])
	}
	return res
}

func matches(r *Record, branchCode, category, gender string) bool {
	if r.ChoiceCode != branchCode && !strings.HasSuffix(r.ChoiceCode, branchCode) {
		return false
	}
	if category != "" && !strings.EqualFold(r.Category, category) {
		return false
	}
	if gender != "" && r.Gender != gender {
		return false
	}
	return true
}

// NormalizeGender maps "general" and "ladies" (any case) to their canonical
// labels. Anything else is returned unchanged.
func NormalizeGender(g string) string {
	switch strings.ToLower(g) {
	case "general":
		return GenderGeneral
	case "ladies":
		return GenderLadies
	}
	return g
}

// ParseSeats reads the leading integer of s, after optional whitespace and
// sign. Text without a leading digit, and values that overflow, read as 0.
func ParseSeats(s string) int {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	digits := 0
	for ; digits < len(s); digits++ {
		c := s[digits]
		if c < '0' || c > '9' {
			break
		}
		d := int(c - '0')
		if n > (math.MaxInt-d)/10 {
			return 0
		}
		n = n*10 + d
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

// Package intake turns the multi-year seat intake table into per-year seat
// series for a branch, category and gender.
package intake

// Column names of the intake table.
const (
	ColChoiceCode = "Choice_Code"
	ColCategory   = "Category"
	ColGender     = "Gender"
	ColYear       = "Year"
	ColSeats      = "Seats"
)

// Canonical gender labels used by the intake table.
const (
	GenderGeneral = "General"
	GenderLadies  = "Ladies"
)

// Record is one row of the intake table. Fields are kept as text; Seats is
// only interpreted when aggregating.
type Record struct {
	ChoiceCode string `json:"choiceCode"`
	Category   string `json:"category"`
	Gender     string `json:"gender"`
	Year       string `json:"year"`
	Seats      string `json:"seats"`
}

// Query selects the records to aggregate. Empty Category or Gender match any
// value; an empty BranchCode matches nothing.
type Query struct {
	BranchCode string `json:"branchCode"`
	Category   string `json:"category"`
	Gender     string `json:"gender"`
}

// Result is a per-year seat series. Years and Seats are parallel slices.
// MatchCount is the number of matching records before grouping.
type Result struct {
	Years      []string `json:"years"`
	Seats      []int    `json:"seats"`
	MatchCount int      `json:"matchCount"`
}

// Empty reports whether the result carries no data points.
func (r Result) Empty() bool {
	return len(r.Years) == 0
}

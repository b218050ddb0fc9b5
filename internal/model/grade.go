package model

// Grade is the letter grade derived from a numeric accessibility score.
type Grade string

// Letter grades from best to worst.
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

// gradeThresholds maps minimum scores to grades, best first.
// The table is total over 0-100: every score falls into exactly one band,
// with F as the catch-all below 50.
var gradeThresholds = []struct {
	min   int
	grade Grade
}{
	{90, GradeA},
	{80, GradeB},
	{70, GradeC},
	{60, GradeD},
	{50, GradeE},
}

// GradeFromScore maps a 0-100 score to its letter grade.
// Scores outside the range are clamped, so the function is total.
func GradeFromScore(score int) Grade {
	for _, t := range gradeThresholds {
		if score >= t.min {
			return t.grade
		}
	}
	return GradeF
}

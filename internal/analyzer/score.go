package analyzer

import "github.com/rgaatools/rgaascan/internal/model"

// Penalty weights per finding severity and the per-page penalty
// ceiling used to normalize scores across sites of different sizes.
const (
	penaltyCritical = 10
	penaltyWarning  = 3
	penaltyInfo     = 1

	maxPenaltyPerPage = 50
)

// Score computes the accessibility score for a completed scan on a
// 0-100 scale. Each finding contributes a severity-weighted penalty,
// normalized against a maximum of 50 penalty points per scanned page.
// A scan that covered no pages scores zero: no evidence of
// accessibility is not accessibility.
func Score(findings []model.Finding, pagesScanned int) int {
	if pagesScanned <= 0 {
		return 0
	}

	critical, warning, info := model.CountBySeverity(findings)
	totalPenalty := critical*penaltyCritical + warning*penaltyWarning + info*penaltyInfo
	maxPenalty := pagesScanned * maxPenaltyPerPage

	score := 100 - int(float64(totalPenalty)/float64(maxPenalty)*100)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// GradeFor maps a score to its letter grade.
func GradeFor(score int) model.Grade {
	return model.GradeFromScore(score)
}

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a scan run.
//
// The state machine is strictly forward:
//
//	pending -> running -> completed
//	pending -> running -> failed
//	pending -> failed
//
// Completed and failed are terminal. A scan that failed is never retried;
// a fresh scan is a new ScanRun.
type Status string

// Scan lifecycle states.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status allows no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// validTransitions lists the allowed status transitions.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusFailed},
	StatusRunning: {StatusCompleted, StatusFailed},
}

// CanTransitionTo reports whether the state machine allows moving from
// s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ScanRun represents one end-to-end execution of the crawl, analyze, and
// score pipeline against one site.
//
// Design decision: We keep aggregate counters (score, severity counts)
// directly on the run rather than recomputing them from findings because:
// 1. History listings must not load every finding row
// 2. The counters are written once at finalization and never change
// 3. It matches what callers polling scan status actually need
type ScanRun struct {
	// ID is the database identifier.
	ID int64 `json:"id"`

	// ScanID is the externally visible unique scan identifier.
	ScanID string `json:"scan_id"`

	// SiteID references the target site.
	SiteID int64 `json:"site_id"`

	// UserID is the owning user. Treated as an opaque string key.
	UserID string `json:"user_id"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// StartedAt is when the scan was requested.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is set when the scan reaches a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// PagesScanned counts pages analyzed so far. Updated incrementally
	// while the scan runs; callers may observe intermediate values.
	PagesScanned int `json:"pages_scanned"`

	// Score is the aggregate 0-100 accessibility score.
	// Only meaningful once Status is completed.
	Score int `json:"score"`

	// Grade is the letter grade derived from Score.
	Grade Grade `json:"grade"`

	// TotalIssues is the total number of findings.
	TotalIssues int `json:"total_issues"`

	// CriticalIssues counts critical findings.
	CriticalIssues int `json:"critical_issues"`

	// WarningIssues counts warning findings.
	WarningIssues int `json:"warning_issues"`

	// InfoIssues counts info findings.
	InfoIssues int `json:"info_issues"`

	// ErrorMessage records why the scan failed. Empty unless failed.
	ErrorMessage string `json:"error_message,omitempty"`

	// ReportPath is the filesystem path of the generated report artifact,
	// if one was produced.
	ReportPath string `json:"report_path,omitempty"`
}

// NewScanRun creates a pending scan run for the given site and user.
func NewScanRun(siteID int64, userID string) *ScanRun {
	return &ScanRun{
		ScanID:    uuid.NewString(),
		SiteID:    siteID,
		UserID:    userID,
		Status:    StatusPending,
		StartedAt: time.Now().UTC(),
		Grade:     GradeF,
	}
}

// Transition moves the run to the given status, enforcing the state
// machine. Terminal states set CompletedAt.
func (r *ScanRun) Transition(next Status) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid scan status transition: %s -> %s", r.Status, next)
	}
	r.Status = next
	if next.Terminal() {
		now := time.Now().UTC()
		r.CompletedAt = &now
	}
	return nil
}

// Fail marks the run as failed with the given reason.
// Failing an already-terminal run is a no-op so that late errors from a
// cancelled execution don't clobber the recorded outcome.
func (r *ScanRun) Fail(reason string) {
	if r.Status.Terminal() {
		return
	}
	r.ErrorMessage = reason
	_ = r.Transition(StatusFailed)
}

// Complete finalizes the run with the aggregate results of a successful
// scan. The severity counts must sum to the length of findings; callers
// should derive them with CountBySeverity.
func (r *ScanRun) Complete(pagesScanned, score int, critical, warning, info int) error {
	if err := r.Transition(StatusCompleted); err != nil {
		return err
	}
	r.PagesScanned = pagesScanned
	r.Score = score
	r.Grade = GradeFromScore(score)
	r.CriticalIssues = critical
	r.WarningIssues = warning
	r.InfoIssues = info
	r.TotalIssues = critical + warning + info
	return nil
}

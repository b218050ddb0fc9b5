// Package analyzer inspects HTML pages for RGAA accessibility
// violations and converts finding lists into an aggregate score and
// letter grade.
//
// The analyzer runs a registry of independent checks over a parsed DOM
// in a fixed declared order, so finding output is deterministic for a
// given document. Checks never fail on malformed markup: missing
// elements are treated as absent, not as errors.
package analyzer

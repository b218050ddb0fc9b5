// Package model defines the core data types for accessibility scanning.
//
// It contains the RGAA rule catalog, finding and severity types, the
// ScanRun lifecycle state machine, and the site registry entity.
// All types in this package are persistence-agnostic; storage concerns
// live in the database package.
package model

// Package errors provides error handling for buildcap.
//
// It re-exports github.com/cockroachdb/errors so that every package wraps
// failures with stack traces and optional user hints:
//
//	ref, err := cache.GetOrLoad(path)
//	if err != nil {
//	    return errors.Wrapf(err, "failed to load reference %s", path)
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New       = crdb.New
	Newf      = crdb.Newf
	Wrap      = crdb.Wrap
	Wrapf     = crdb.Wrapf
	WithStack = crdb.WithStack
)

// User-facing messages and details
var (
	WithHint   = crdb.WithHint
	WithDetail = crdb.WithDetail
)

// Inspection
var (
	Is          = crdb.Is
	As          = crdb.As
	GetAllHints = crdb.GetAllHints
)

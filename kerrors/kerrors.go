// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kerrors defines the error taxonomy shared by the importer,
// the ANI engine, and the per-sample orchestrator:
// AssemblyFailed (warning/danger) for bad or missing input, and Minor
// for a condition that disables one derived step without aborting the
// sample. Anything else is an ordinary Go error and is treated as
// fatal by the orchestrator.
package kerrors

import "fmt"

// Severity classifies an AssemblyFailedError.
type Severity string

const (
	// SeverityWarning marks an expected, non-alarming failure, such as
	// an assembler not having run for a sample.
	SeverityWarning Severity = "warning"
	// SeverityDanger marks an unexpected failure in otherwise-present
	// input.
	SeverityDanger Severity = "danger"
)

// AssemblyFailedError is raised when an assembler produced no usable
// output, or produced output that cannot be trusted.
type AssemblyFailedError struct {
	Component string
	Severity  Severity
	Err       error
}

func (e *AssemblyFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Severity, e.Err)
}

func (e *AssemblyFailedError) Unwrap() error { return e.Err }

// Failedf builds an *AssemblyFailedError from a component name,
// severity, and a format string applied to args.
func Failedf(component string, severity Severity, format string, args ...interface{}) error {
	return &AssemblyFailedError{Component: component, Severity: severity, Err: fmt.Errorf(format, args...)}
}

// MinorError is raised for a problem that disables one derived step
// (e.g. ANI cannot be computed with fewer than two contig groups) but
// should not stop the rest of the sample from being processed.
type MinorError struct {
	Component string
	Err       error
}

func (e *MinorError) Error() string { return fmt.Sprintf("%s: %v", e.Component, e.Err) }
func (e *MinorError) Unwrap() error { return e.Err }

// Minorf builds a *MinorError from a component name and a format
// string applied to args.
func Minorf(component string, format string, args ...interface{}) error {
	return &MinorError{Component: component, Err: fmt.Errorf(format, args...)}
}

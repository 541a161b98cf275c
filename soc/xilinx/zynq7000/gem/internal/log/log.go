// Package log provides the small leveled logger used by the GEM worker and
// link controller's slow path. The ISR stays allocation-free and never
// calls into this package.
//
// https://github.com/usbarmory/tamago-zynq7000
//
// Copyright (c) The tamago-zynq7000 Authors
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
package log

import "log"

// Logger is the minimal interface every logged-and-ignored condition in the
// GEM driver goes through.
type Logger interface {
	Printf(format string, args ...interface{})
}

// stdLogger wraps the standard library's log package.
type stdLogger struct{}

func (stdLogger) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// Default is the package-level logger used unless overridden.
var Default Logger = stdLogger{}

// Discard drops every message. Useful for tests asserting on Stats rather
// than log output.
type Discard struct{}

func (Discard) Printf(string, ...interface{}) {}

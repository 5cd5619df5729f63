// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

// GlobalLogger is the global logger from which all
// package loggers derive.
var GlobalLogger = New()

// NewFromGlobal creates a child logger from the global logger.
func NewFromGlobal(options ...Option) *Logger {
	return GlobalLogger.New(options...)
}

// Patch patches the global logger.
func Patch(options ...Option) {
	GlobalLogger.Patch(options...)
}

// PatchLevel patches the level of the global logger and
// all its children.
func PatchLevel(level Level) {
	GlobalLogger.PatchLevel(level)
}

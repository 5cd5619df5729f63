// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package log provides a levelled logger with context key values
// and a global logger from which child loggers can derive.
package log

import (
	"sync"
)

// Logger is a logger with a level, writer and context
// key value pairs. Child loggers share the same mutex as
// their parent so lines never interleave on a shared writer.
type Logger struct {
	settings settings
	mutex    *sync.Mutex
	childs   []*Logger
}

// New creates a new logger with the options given.
// The default level is Info and the default writer
// is os.Stdout.
func New(options ...Option) *Logger {
	s := newSettings(options)
	s.setDefaults()
	return &Logger{
		settings: s,
		mutex:    new(sync.Mutex),
	}
}

// New creates a new child logger from the receiving logger,
// with the options given. Any setting not set through an option
// is inherited from the parent logger.
func (l *Logger) New(options ...Option) *Logger {
	newSettings := newSettings(options)
	newSettings.mergeWith(l.settings)
	child := &Logger{
		settings: newSettings,
		mutex:    l.mutex,
	}
	l.childs = append(l.childs, child)
	return child
}

// Patch patches the existing settings with any option given.
// Children of the logger are left untouched.
func (l *Logger) Patch(options ...Option) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.patch(options...)
}

func (l *Logger) patch(options ...Option) {
	for _, option := range options {
		option(&l.settings)
	}
}

// PatchLevel patches the level of the logger and all its
// child loggers.
func (l *Logger) PatchLevel(level Level) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.patchLevel(level)
}

func (l *Logger) patchLevel(level Level) {
	l.patch(SetLevel(level))
	for _, child := range l.childs {
		child.patchLevel(level)
	}
}

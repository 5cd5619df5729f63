// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"io"
	"os"
)

type settings struct {
	writer  io.Writer
	level   *Level
	caller  callerSettings
	context []contextKeyValues
}

type contextKeyValues struct {
	key    string
	values []string
}

type callerSettings struct {
	file *bool
	line *bool
	funC *bool
}

func newSettings(options []Option) (s settings) {
	for _, option := range options {
		option(&s)
	}
	return s
}

// mergeWith sets empty fields of the receiving settings
// with the fields of the other settings given.
func (s *settings) mergeWith(other settings) {
	if s.writer == nil {
		s.writer = other.writer
	}
	if s.level == nil && other.level != nil {
		level := *other.level
		s.level = &level
	}
	s.caller.mergeWith(other.caller)
	s.context = mergeContexts(other.context, s.context)
}

func (s *settings) setDefaults() {
	if s.writer == nil {
		s.writer = os.Stdout
	}
	if s.level == nil {
		level := Info
		s.level = &level
	}
	s.caller.setDefaults()
}

func (c *callerSettings) mergeWith(other callerSettings) {
	if c.file == nil && other.file != nil {
		value := *other.file
		c.file = &value
	}
	if c.line == nil && other.line != nil {
		value := *other.line
		c.line = &value
	}
	if c.funC == nil && other.funC != nil {
		value := *other.funC
		c.funC = &value
	}
}

func (c *callerSettings) setDefaults() {
	if c.file == nil {
		value := false
		c.file = &value
	}
	if c.line == nil {
		value := false
		c.line = &value
	}
	if c.funC == nil {
		value := false
		c.funC = &value
	}
}

func mergeContexts(base, extra []contextKeyValues) (merged []contextKeyValues) {
	merged = make([]contextKeyValues, 0, len(base)+len(extra))
	for _, kvs := range base {
		values := make([]string, len(kvs.values))
		copy(values, kvs.values)
		merged = append(merged, contextKeyValues{key: kvs.key, values: values})
	}
	for _, kvs := range extra {
		index := -1
		for i := range merged {
			if merged[i].key == kvs.key {
				index = i
				break
			}
		}
		if index == -1 {
			values := make([]string, len(kvs.values))
			copy(values, kvs.values)
			merged = append(merged, contextKeyValues{key: kvs.key, values: values})
			continue
		}
		merged[index].values = append(merged[index].values, kvs.values...)
	}
	return merged
}

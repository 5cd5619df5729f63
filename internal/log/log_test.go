// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Logger_levels(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	logger := New(SetWriter(buffer), SetLevel(Warn))

	logger.Info("filtered out")
	assert.Zero(t, buffer.Len())

	logger.Warn("kept")
	require.NotZero(t, buffer.Len())
	assert.Contains(t, buffer.String(), "kept")
}

func Test_Logger_context(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	parent := New(SetWriter(buffer), SetLevel(Info),
		AddContext("pkg", "parent"))
	child := parent.New(AddContext("module", "child"))

	child.Info("hello")
	line := buffer.String()
	assert.Contains(t, line, "pkg=parent")
	assert.Contains(t, line, "module=child")
}

func Test_Logger_PatchLevel(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	parent := New(SetWriter(buffer), SetLevel(Error))
	child := parent.New()

	child.Info("before patch")
	assert.Zero(t, buffer.Len())

	parent.PatchLevel(Info)
	child.Info("after patch")
	assert.Contains(t, buffer.String(), "after patch")
}

func Test_ParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("dbug")
	require.NoError(t, err)
	assert.Equal(t, Debug, level)

	_, err = ParseLevel("unknown")
	assert.ErrorIs(t, err, ErrLevelNotRecognised)
}

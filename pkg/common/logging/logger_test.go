/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogLevel(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{" warn ", WARNING},
		{"warning", WARNING},
		{"error", ERROR},
		{"fatal", CRITICAL},
	} {
		l, err := LogLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.expected, l, tc.in)
	}

	_, err := LogLevel("chatty")
	assert.Error(t, err)
}

func TestModuleLevels(t *testing.T) {
	const module = "fabgw/test/levels"

	assert.Equal(t, GetLevel(defaultModule), GetLevel(module))

	SetLevel(module, WARNING)
	defer SetLevel(module, INFO)

	assert.True(t, IsEnabledFor(module, ERROR))
	assert.True(t, IsEnabledFor(module, WARNING))
	assert.False(t, IsEnabledFor(module, INFO))
	assert.Equal(t, "WARNING", GetLevel(module).String())
}

func TestLoggerWritesThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Initialize(zap.New(core))

	const module = "fabgw/test/observer"
	SetLevel(module, INFO)

	logger := NewLogger(module)
	logger.Debugf("hidden %d", 1)
	logger.Infof("shown %d", 2)
	logger.Warn("warned")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "shown 2", entries[0].Message)
	assert.Equal(t, module, entries[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

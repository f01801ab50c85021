// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// newBufferedSlogger wires a slog.Logger to a zerolog instance writing
// into buf, bypassing the global logger so output can be inspected.
func newBufferedSlogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(&SlogHandler{logger: zerolog.New(buf)})
}

func TestSlogHandlerGroupPrefixes(t *testing.T) {
	t.Run("ungrouped keys pass through", func(t *testing.T) {
		var buf bytes.Buffer
		newBufferedSlogger(&buf).Info("hello", "key", "value")
		assert.Contains(t, buf.String(), `"key":"value"`)
	})

	t.Run("nested groups prefix outermost first", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferedSlogger(&buf).WithGroup("outer").WithGroup("inner")
		logger.Info("hello", "key", "value")
		assert.Contains(t, buf.String(), `"outer.inner.key":"value"`)
	})

	t.Run("inline group attrs nest under open groups", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferedSlogger(&buf).WithGroup("outer")
		logger.Info("hello", slog.Group("inner", slog.String("key", "value")))
		assert.Contains(t, buf.String(), `"outer.inner.key":"value"`)
	})

	t.Run("preset attrs carry their group prefix", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newBufferedSlogger(&buf).WithGroup("svc").With("component", "hub")
		logger.Info("hello")
		assert.Contains(t, buf.String(), `"svc.component":"hub"`)
	})
}

func TestSlogHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedSlogger(&buf)

	logger.Warn("careful")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"message":"careful"`)
}

// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package events

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/parfour/parfour/internal/logging"
)

// zerologAdapter routes Watermill's internal logging through the
// global zerolog logger so bus diagnostics land in the same sink as
// everything else.
type zerologAdapter struct {
	fields watermill.LogFields
}

// NewLoggerAdapter creates a watermill.LoggerAdapter backed by zerolog.
func NewLoggerAdapter() watermill.LoggerAdapter {
	return &zerologAdapter{}
}

func (a *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	event := logging.Error().Err(err)
	for k, v := range a.fields.Add(fields) {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (a *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	event := logging.Info()
	for k, v := range a.fields.Add(fields) {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (a *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	event := logging.Debug()
	for k, v := range a.fields.Add(fields) {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (a *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	a.Debug(msg, fields)
}

func (a *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zerologAdapter{fields: a.fields.Add(fields)}
}

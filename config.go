// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// config.go — decoder session configuration and its defaults.

package gridcodec

import (
	"github.com/AndrewDonelson/gridcodec/internal/clock"
	"github.com/AndrewDonelson/gridcodec/internal/codec"
	"github.com/AndrewDonelson/gridcodec/internal/metrics"
)

// Re-export types so callers only import this package.
type MetricsRecorder = metrics.MetricsRecorder
type Codec = codec.Codec

const defaultInitialHandles = 10

// Config configures a decode session.
type Config struct {
	// Resolver maps type ids and names to class descriptors. Required.
	Resolver SchemaResolver

	// FieldIDs maps field names to footer ids. Defaults to LowerCaseHashIDs.
	FieldIDs FieldIDResolver

	// Fallback decodes Delegated payloads. Defaults to MessagePack.
	Fallback codec.Codec

	// FieldTypeMarkers is set when the encoder writes a tag byte before
	// every primitive field.
	FieldTypeMarkers bool

	// InitialHandles sizes the handle table.
	InitialHandles int

	Logger  Logger
	Metrics metrics.MetricsRecorder
	Clock   clock.Clock
}

func (c *Config) defaults() {
	if c.FieldIDs == nil {
		c.FieldIDs = LowerCaseHashIDs{}
	}
	if c.Fallback == nil {
		c.Fallback = codec.Default
	}
	if c.InitialHandles <= 0 {
		c.InitialHandles = defaultInitialHandles
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop{}
	}
	if c.Clock == nil {
		c.Clock = clock.Real{}
	}
}

// Copyright 2026 Soromet Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	cleanup, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	cleanup()
}

// Init must succeed even when no collector listens on the endpoint; spans
// are dropped, execution is never blocked.
func TestInitUnreachableCollector(t *testing.T) {
	ctx := context.Background()
	cleanup, err := Init(ctx, Config{
		Enabled:     true,
		ExporterURL: "127.0.0.1:37999",
		ServiceName: "soromet-test",
	})
	require.NoError(t, err)
	defer cleanup()

	tracer := GetTracer()
	require.NotNil(t, tracer)
	_, span := tracer.Start(ctx, "test-span")
	span.End()
}

func TestGetTracerWithoutInit(t *testing.T) {
	tracer := GetTracer()
	require.NotNil(t, tracer)
	_, span := tracer.Start(context.Background(), "test-span")
	span.End()
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SOROMET_OTEL_ENDPOINT", "")
	assert.False(t, ConfigFromEnv().Enabled)

	t.Setenv("SOROMET_OTEL_ENDPOINT", "127.0.0.1:4318")
	cfg := ConfigFromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "127.0.0.1:4318", cfg.ExporterURL)
}

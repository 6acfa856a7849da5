//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracesEndpointPrecedence(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "traces:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "generic:4317")
	assert.Equal(t, "traces:4317", tracesEndpoint(ProtocolGRPC))

	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	assert.Equal(t, "generic:4317", tracesEndpoint(ProtocolGRPC))

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	assert.Equal(t, defaultGRPCEndpoint, tracesEndpoint(ProtocolGRPC))
	assert.Equal(t, defaultHTTPEndpoint, tracesEndpoint(ProtocolHTTP))
}

func TestTracerIsNoopBeforeStart(t *testing.T) {
	assert.NotNil(t, Tracer)
}

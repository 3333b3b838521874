package tracing

import (
	"context"
	"testing"

	"github.com/richxcame/ridemeter/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), &config.TracingConfig{Enabled: false}, "fare-api")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := Tracer("test").Start(context.Background(), "noop")
	span.End()
}

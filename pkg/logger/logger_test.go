package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

func TestComponent_EscribeJSONConCampo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "debug", Output: &buf})

	c := l.Component("session")
	c.Info().Str("actor_id", "u1").Msg("token emitido")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session", line["component"])
	assert.Equal(t, "u1", line["actor_id"])
	assert.Equal(t, "token emitido", line["message"])
}

func TestNew_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "verboso", Output: &buf})
	l.Debug().Msg("oculto")
	assert.Empty(t, buf.String())
	l.Info().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := decodeEnvelope("session:7", `{"sessionId":7,"event":"message","data":{"text":"hi"}}`)
	require.NoError(t, err)
	assert.Equal(t, uint(7), env.SessionID)
	assert.Equal(t, "message", env.Event)
	assert.JSONEq(t, `{"text":"hi"}`, string(env.Data))

	_, err = decodeEnvelope("session:8", `{"sessionId":7,"event":"message","data":{}}`)
	assert.Error(t, err, "channel and envelope must agree")

	_, err = decodeEnvelope("session:x", `{"sessionId":7}`)
	assert.Error(t, err)

	_, err = decodeEnvelope("session:7", `not json`)
	assert.Error(t, err)
}

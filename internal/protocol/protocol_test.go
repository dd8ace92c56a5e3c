package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenprobe/internal/pixel"
)

func TestDecodePayload(t *testing.T) {
	sent := Message{
		Type:    TypeSample,
		Payload: pixel.Ok(3, 4, pixel.RGB{R: 1, G: 2, B: 3}).Record(),
	}
	data, err := json.Marshal(sent)
	require.NoError(t, err)

	var got Message
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeSample, got.Type)

	var rec pixel.Record
	require.NoError(t, DecodePayload(got, &rec))
	assert.Equal(t, "#010203", rec.Hex)
	assert.Equal(t, 4, rec.Y)
}

func TestMessageOmitsEmptyPayload(t *testing.T) {
	data, err := json.Marshal(Message{Type: TypeScreensRequest})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"screens_req"}`, string(data))
}

package lbv1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The canonical catalog every fleet ships with; the codec must carry
// these descriptors without loss.
var canonicalModels = []*ModelInfo{
	{Name: "llama3.2:1b", Parameters: 1_000_000_000, SizeGB: 2.0, ComplexityScore: 4},
	{Name: "llama3.2:3b", Parameters: 3_000_000_000, SizeGB: 6.0, ComplexityScore: 5},
	{Name: "llama3.1:8b", Parameters: 8_000_000_000, SizeGB: 16.0, ComplexityScore: 7},
	{Name: "llava:7b", Parameters: 7_000_000_000, SizeGB: 14.0, ComplexityScore: 6, SupportsVision: true},
}

func TestModelInfoRoundTrip(t *testing.T) {
	c := jsonCodec{}
	for _, m := range canonicalModels {
		data, err := c.Marshal(m)
		require.NoError(t, err)

		var got ModelInfo
		require.NoError(t, c.Unmarshal(data, &got))
		require.Equal(t, *m, got, "model %s", m.Name)
	}
}

func TestAIRequestRoundTrip(t *testing.T) {
	c := jsonCodec{}
	in := &AIRequest{
		RequestID:     "req-123",
		Prompt:        "when should winter wheat be sown?",
		AssignedModel: "llama3.1:8b",
		Timestamp:     1724457600,
		Images:        []string{"aGVsbG8=", "d29ybGQ="},
	}
	data, err := c.Marshal(in)
	require.NoError(t, err)

	var got AIRequest
	require.NoError(t, c.Unmarshal(data, &got))
	require.Equal(t, *in, got)
}

func TestStatusEnumOnTheWire(t *testing.T) {
	c := jsonCodec{}
	for _, s := range []Status{StatusQueued, StatusProcessing, StatusCompleted, StatusError} {
		data, err := c.Marshal(&StatusResponse{Status: s, ProgressPercentage: 42.5})
		require.NoError(t, err)

		var got StatusResponse
		require.NoError(t, c.Unmarshal(data, &got))
		require.Equal(t, s, got.Status)
	}

	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusError.Terminal())
	require.False(t, StatusProcessing.Terminal())
	require.False(t, StatusQueued.Terminal())
}

func TestEmptyPayload(t *testing.T) {
	c := jsonCodec{}
	var e Empty
	require.NoError(t, c.Unmarshal(nil, &e))

	data, err := c.Marshal(&Empty{})
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
}

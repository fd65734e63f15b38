package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_PopulatesEnvelope(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	event, err := NewEvent("identity.user.registered", "42", "user", "identity-service", payload{Email: "a@x.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "identity.user.registered", event.EventType)
	assert.Equal(t, "42", event.AggregateID)
	assert.Equal(t, "user", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	event, err := NewEvent("identity.user.password_reset", "7", "user", "identity-service", map[string]string{"email": "b@x.com"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)

	var payload map[string]string
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "b@x.com", payload["email"])
}

package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Sukhmangill977/majoor2.0/internal/events"
)

func TestUserUpdatedEvent_Marshal(t *testing.T) {
	ev := events.UserUpdatedEvent{
		EventType: "user.updated",
		UserID:    uuid.New(),
		UpdatedAt: time.Now(),
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "user.updated", decoded["event_type"])
	require.Equal(t, ev.UserID.String(), decoded["user_id"])
}

func TestUserDeletedEvent_Marshal(t *testing.T) {
	ev := events.UserDeletedEvent{
		EventType: "user.deleted",
		UserID:    uuid.New(),
		DeletedAt: time.Now(),
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "user.deleted", decoded["event_type"])
}

package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":     "7d1b0e4e-1111-4c4c-9a9a-000000000001",
		"amount": "42.5",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
	after := time.Now()

	assert.Equal(t, "transaction.created", evt.Type)
	assert.Equal(t, EntityTypeTransaction, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	evt := Event{
		Type:      "overview.invalidated",
		Entity:    EntityTypeOverview,
		Timestamp: fixedTime,
	}

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "overview.invalidated", decoded["type"])
	assert.Equal(t, "overview", decoded["entity"])
	assert.Nil(t, decoded["payload"])
	assert.Equal(t, "2024-03-01T10:30:00Z", decoded["timestamp"])
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name     string
		evt      Event
		expected string
	}{
		{"overview invalidated", OverviewInvalidated(), "overview.invalidated"},
		{"transaction created", TransactionCreated(nil), "transaction.created"},
		{"transaction deleted", TransactionDeleted(nil), "transaction.deleted"},
		{"category created", CategoryCreated(nil), "category.created"},
		{"category deleted", CategoryDeleted(nil), "category.deleted"},
		{"settings updated", SettingsUpdated(nil), "settings.updated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.evt.Type)
			assert.Equal(t, time.UTC, tt.evt.Timestamp.Location())
		})
	}
}

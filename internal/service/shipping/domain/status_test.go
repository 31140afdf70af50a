package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, st := range AllStatuses() {
		parsed, err := ParseStatus(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}

	for _, bad := range []string{"", "shipped", "IN_TRANSIT", " PENDING"} {
		_, err := ParseStatus(bad)
		assert.True(t, errors.Is(err, ErrInvalidStatus), "status %q should be rejected", bad)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipped.Terminal())
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusUnknown.Terminal())
}

func TestStatusJSON(t *testing.T) {
	type wrapper struct {
		Status Status `json:"status"`
	}

	b, err := json.Marshal(wrapper{Status: StatusDelivered})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"DELIVERED"}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"status":"FAILED"}`), &w))
	assert.Equal(t, StatusFailed, w.Status)

	err = json.Unmarshal([]byte(`{"status":"LOST"}`), &w)
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	_, err = json.Marshal(wrapper{})
	assert.Error(t, err, "zero status must not be serialized")
}

func TestAllStatusesIsACopy(t *testing.T) {
	all := AllStatuses()
	all[0] = StatusUnknown
	assert.Equal(t, StatusPending, AllStatuses()[0])
}

package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload ErrorPayload
		wantErr string
	}{
		{
			name:    "valid error payload",
			payload: ErrorPayload{Type: KindError, Timestamp: 1, Message: "boom"},
		},
		{
			name:    "valid rejection payload",
			payload: ErrorPayload{Type: KindUnhandledRejection, Timestamp: 1, Message: "late failure"},
		},
		{
			name:    "console payload with args only",
			payload: ErrorPayload{Type: KindConsoleError, Timestamp: 1, Args: []any{"oops"}},
		},
		{
			name:    "missing timestamp",
			payload: ErrorPayload{Type: KindError, Message: "boom"},
			wantErr: "timestamp is required",
		},
		{
			name:    "error without message",
			payload: ErrorPayload{Type: KindError, Timestamp: 1},
			wantErr: "error payload requires a message",
		},
		{
			name:    "console without message or args",
			payload: ErrorPayload{Type: KindConsoleError, Timestamp: 1},
			wantErr: "consoleError payload requires a message or args",
		},
		{
			name:    "unknown type",
			payload: ErrorPayload{Type: "warning", Timestamp: 1, Message: "x"},
			wantErr: `unknown payload type "warning"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.payload.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantErr, err.Error())
		})
	}
}

func TestOptionalFieldsOmitted(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ErrorPayload{Type: KindUnhandledRejection, Timestamp: 42, Message: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"unhandledRejection","timestamp":42,"message":"x"}`, string(data))
}

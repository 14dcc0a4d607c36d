package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr bool
		event   string
	}{
		{
			name:  "valid join",
			frame: `{"event":"join","data":{"room_id":"r1"}}`,
			event: "join",
		},
		{
			name:  "valid cursor",
			frame: `{"event":"cursor","data":{"line":1}}`,
			event: "cursor",
		},
		{
			name:  "valid code_change",
			frame: `{"event":"code_change","data":{"code":"x"}}`,
			event: "code_change",
		},
		{
			name:    "empty frame",
			frame:   "",
			wantErr: true,
		},
		{
			name:    "not json",
			frame:   "hello",
			wantErr: true,
		},
		{
			name:    "unknown event",
			frame:   `{"event":"format-disk","data":{}}`,
			wantErr: true,
		},
		{
			name:    "outbound event name from a client",
			frame:   `{"event":"initial-code","data":{"code":"x"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := decodeFrame([]byte(tt.frame))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.event, env.Event)
		})
	}
}

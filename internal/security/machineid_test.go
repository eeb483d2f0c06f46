package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineIDProvider(t *testing.T) {
	tests := []struct {
		name        string
		appID       string
		id          func() (string, error)
		protectedID func(string) (string, error)
		want        string
		wantErr     error
	}{
		{
			name: "raw id",
			id:   func() (string, error) { return "4c4c4544-0042", nil },
			want: "4c4c4544-0042",
		},
		{
			name: "raw id is trimmed",
			id:   func() (string, error) { return " 4c4c4544-0042\n", nil },
			want: "4c4c4544-0042",
		},
		{
			name:  "protected id",
			appID: "pulse",
			protectedID: func(appID string) (string, error) {
				return "hmac-of-" + appID, nil
			},
			want: "hmac-of-pulse",
		},
		{
			name:    "empty id",
			id:      func() (string, error) { return "  ", nil },
			wantErr: ErrEmptyHardwareID,
		},
		{
			name:    "read failure",
			id:      func() (string, error) { return "", errDBusGone },
			wantErr: errDBusGone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMachineIDProvider(tt.appID)
			if tt.id != nil {
				p.id = tt.id
			}
			if tt.protectedID != nil {
				p.protectedID = tt.protectedID
			}

			got, err := p.HardwareID()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

var errDBusGone = errors.New("dbus machine id missing")

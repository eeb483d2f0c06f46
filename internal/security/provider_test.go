package security

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licensegate/internal/config"
)

func TestNewHardwareIdentityProvider(t *testing.T) {
	t.Run("machine id", func(t *testing.T) {
		p, err := NewHardwareIdentityProvider(config.HardwareConfig{Source: config.HardwareSourceMachineID, AppID: "x"}, quietLogger())
		require.NoError(t, err)
		mp, ok := p.(*MachineIDProvider)
		require.True(t, ok)
		assert.Equal(t, "x", mp.appID)
	})

	t.Run("fingerprint", func(t *testing.T) {
		p, err := NewHardwareIdentityProvider(config.HardwareConfig{
			Source:           config.HardwareSourceFingerprint,
			FingerprintCache: time.Minute,
		}, quietLogger())
		require.NoError(t, err)
		fm, ok := p.(*FingerprintManager)
		require.True(t, ok)
		assert.Equal(t, time.Minute, fm.cacheDuration)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewHardwareIdentityProvider(config.HardwareConfig{Source: "tpm"}, quietLogger())
		assert.Error(t, err)
	})
}

func TestMaskIdentifier(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "empty", id: "", want: "****"},
		{name: "short", id: "HW-1", want: "****"},
		{name: "eight characters", id: "abcdefgh", want: "****"},
		{name: "ascii", id: "abcdefghijklmnopqrstuvwxyz", want: "abcd****wxyz"},
		{name: "multi-byte", id: "ÄÖÜßäöüéèà", want: "ÄÖÜß****üéèà"},
		{name: "short multi-byte", id: "日本語の機械番号", want: "****"},
		{name: "mixed width", id: "HW-€€€-00001-€", want: "HW-€****01-€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskIdentifier(tt.id)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

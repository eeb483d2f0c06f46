package domain

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyLicenseRequest_Bind(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"untouched", "abc.def", "abc.def"},
		{"surrounding whitespace", "  abc.def\n", "abc.def"},
		{"inner newline kept", "abc\n.def", "abc\n.def"},
		{"empty", "   ", ""},
	}

	req := httptest.NewRequest("POST", "/api/license/verify", nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &VerifyLicenseRequest{License: tt.in}
			require.NoError(t, r.Bind(req))
			assert.Equal(t, tt.want, r.License)
		})
	}
}

func TestVerifyLicenseRequest_BindNil(t *testing.T) {
	var r *VerifyLicenseRequest
	assert.Error(t, r.Bind(httptest.NewRequest("POST", "/", nil)))
}

package validation

import (
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licensegate/internal/shared/testutil"
)

func TestFileValidator_ValidateFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/data/token.lic", []byte("abc.def"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/empty", nil, 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/big", []byte(strings.Repeat("x", 100)), 0o644))

	tests := []struct {
		name          string
		path          string
		maxSize       int64
		errorContains string
		tooLarge      bool
	}{
		{name: "valid file", path: "/data/token.lic", maxSize: 64},
		{name: "no size limit", path: "/data/big", maxSize: 0},
		{name: "missing", path: "/data/nope", errorContains: "does not exist"},
		{name: "directory", path: "/data", errorContains: "is a directory"},
		{name: "empty", path: "/data/empty", errorContains: "is empty"},
		{name: "over limit", path: "/data/big", maxSize: 99, tooLarge: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			v := NewFileValidator(fsys, logger)

			err := v.ValidateFile(tt.path, tt.maxSize)
			switch {
			case tt.tooLarge:
				assert.True(t, errors.Is(err, ErrFileTooLarge))
			case tt.errorContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ReadFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/k", []byte("key"), 0o600))
	v := NewFileValidator(fsys, nil)

	b, err := v.ReadFile("/k", MaxKeyFileSize)
	require.NoError(t, err)
	assert.Equal(t, "key", string(b))

	_, err = v.ReadFile("/missing", MaxKeyFileSize)
	assert.Error(t, err)
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	v := NewFileValidator(fsys, nil)

	require.NoError(t, v.ValidateOutputDirectory("/out/keys", 0o700))

	info, err := fsys.Stat("/out/keys")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	exists, err := afero.Exists(fsys, "/out/keys/.write_test")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileValidator_ValidateOutputDirectoryReadOnly(t *testing.T) {
	v := NewFileValidator(afero.NewReadOnlyFs(afero.NewMemMapFs()), nil)
	assert.Error(t, v.ValidateOutputDirectory("/out", 0o700))
}

func TestFileValidator_PrivateKeyPermissionsOK(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("mode bits are not checked on windows")
	}

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/private", []byte("k"), 0o600))
	require.NoError(t, afero.WriteFile(fsys, "/shared", []byte("k"), 0o644))

	logger, handler := testutil.NewTestLogger(t)
	v := NewFileValidator(fsys, logger)

	ok, err := v.PrivateKeyPermissionsOK("/private")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.PrivateKeyPermissionsOK("/shared")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, handler.ContainsMessage("Private key is accessible by other users"))

	_, err = v.PrivateKeyPermissionsOK("/missing")
	assert.Error(t, err)
}

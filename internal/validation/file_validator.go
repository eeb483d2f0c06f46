package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// Size limits for files read by the operator tooling.
const (
	MaxKeyFileSize     = 16 << 10
	MaxPayloadFileSize = 64 << 10
	MaxTokenFileSize   = 32 << 10
)

// ErrFileTooLarge is returned when a file exceeds the caller's size limit.
var ErrFileTooLarge = errors.New("file too large")

// FileValidator checks key, payload and license files before they are used.
type FileValidator struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(fsys afero.Fs, logger *slog.Logger) *FileValidator {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		fs:     fsys,
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateFile checks that path is a non-empty regular file no larger than
// maxSize. A non-positive maxSize disables the size check.
func (v *FileValidator) ValidateFile(path string, maxSize int64) error {
	info, err := v.fs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file %s is empty", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		v.logger.Error("File exceeds size limit",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.Int64("limit", maxSize))
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, info.Size(), maxSize)
	}

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ReadFile validates path and returns its contents.
func (v *FileValidator) ReadFile(path string, maxSize int64) ([]byte, error) {
	if err := v.ValidateFile(path, maxSize); err != nil {
		return nil, err
	}
	return afero.ReadFile(v.fs, path)
}

// ValidateOutputDirectory ensures dir exists, creating it with perm, and is
// writable.
func (v *FileValidator) ValidateOutputDirectory(dir string, perm os.FileMode) error {
	if err := v.fs.MkdirAll(dir, perm); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := v.fs.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	_ = v.fs.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// PrivateKeyPermissionsOK reports whether a private key file is closed to
// group and other users. It always reports true on Windows, where mode bits
// do not describe access.
func (v *FileValidator) PrivateKeyPermissionsOK(path string) (bool, error) {
	if runtime.GOOS == "windows" {
		return true, nil
	}
	info, err := v.fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		v.logger.Warn("Private key is accessible by other users",
			slog.String("file", path),
			slog.String("mode", perm.String()))
		return false, nil
	}
	return true, nil
}

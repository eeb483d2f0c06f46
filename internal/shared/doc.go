// Package shared holds code used across licensegate packages that belongs to
// no single layer. The testutil subpackage provides captured slog output and
// signed license fixtures for tests.
package shared

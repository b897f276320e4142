package tester

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Eq asserts that got equals want (deep equality for non-comparable types).
func Eq[T any](t *testing.T, got, want T, msgAndArgs ...any) {
	t.Helper()
	require.Equal(t, want, got, msgAndArgs...)
}

// True asserts that cond is true.
func True(t *testing.T, cond bool, msgAndArgs ...any) {
	t.Helper()
	require.True(t, cond, msgAndArgs...)
}

// False asserts that cond is false.
func False(t *testing.T, cond bool, msgAndArgs ...any) {
	t.Helper()
	require.False(t, cond, msgAndArgs...)
}

// NoErr asserts that err is nil.
func NoErr(t *testing.T, err error, msgAndArgs ...any) {
	t.Helper()
	require.NoError(t, err, msgAndArgs...)
}

// Err asserts that err is non-nil.
func Err(t *testing.T, err error, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
}

// Len asserts that obj (slice, map, string, channel) has n elements.
func Len(t *testing.T, obj any, n int, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, obj, n, msgAndArgs...)
}

// Contains asserts that s contains sub.
func Contains(t *testing.T, s, sub string, msgAndArgs ...any) {
	t.Helper()
	require.Contains(t, s, sub, msgAndArgs...)
}

// NotContains asserts that s does not contain sub.
func NotContains(t *testing.T, s, sub string, msgAndArgs ...any) {
	t.Helper()
	require.NotContains(t, s, sub, msgAndArgs...)
}

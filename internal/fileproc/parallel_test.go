package fileproc

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPathsCollectsResults(t *testing.T) {
	paths := []string{"a.py", "b.py", "c.py"}

	results, errs := MapPaths(context.Background(), paths, func(_ context.Context, path string) (string, error) {
		return strings.ToUpper(path), nil
	}, nil)

	require.Nil(t, errs)
	sort.Strings(results)
	assert.Equal(t, []string{"A.PY", "B.PY", "C.PY"}, results)
}

func TestMapPathsCollectsErrors(t *testing.T) {
	paths := []string{"ok.py", "bad.py", "also_ok.py"}
	boom := errors.New("boom")

	results, errs := MapPaths(context.Background(), paths, func(_ context.Context, path string) (int, error) {
		if path == "bad.py" {
			return 0, boom
		}
		return len(path), nil
	}, nil)

	require.NotNil(t, errs)
	assert.True(t, errs.HasErrors())
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, "bad.py", errs.Errors[0].Path)
	assert.ErrorIs(t, errs.Errors[0].Err, boom)

	// Successful paths still produce results.
	assert.Len(t, results, 2)
}

func TestMapPathsEmpty(t *testing.T) {
	results, errs := MapPaths(context.Background(), nil, func(_ context.Context, path string) (int, error) {
		t.Fatal("fn should not be called")
		return 0, nil
	}, nil)

	assert.Nil(t, results)
	assert.Nil(t, errs)
}

func TestMapPathsProgress(t *testing.T) {
	paths := []string{"a", "b", "c", "d"}

	var calls atomic.Int32
	_, errs := MapPaths(context.Background(), paths, func(_ context.Context, path string) (struct{}, error) {
		return struct{}{}, nil
	}, func() { calls.Add(1) })

	require.Nil(t, errs)
	assert.Equal(t, int32(len(paths)), calls.Load())
}

func TestMapPathsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, errs := MapPaths(ctx, []string{"a", "b"}, func(ctx context.Context, path string) (int, error) {
		return 1, nil
	}, nil)

	// With a cancelled context every path reports a context error.
	assert.Empty(t, results)
	require.NotNil(t, errs)
	assert.True(t, errs.HasErrors())
}

func TestProcessingErrorsError(t *testing.T) {
	errs := &ProcessingErrors{}
	assert.Equal(t, "no errors", errs.Error())

	errs.Add("a.py", errors.New("parse failed"))
	assert.Equal(t, "a.py: parse failed", errs.Error())

	errs.Add("b.py", errors.New("io"))
	assert.Contains(t, errs.Error(), "2 files failed")
}

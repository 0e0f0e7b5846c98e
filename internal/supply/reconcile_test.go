package supply

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VikingOwl91/witness/internal/resolution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	dir       string
	artifacts []resolution.Artifact
	hashes    map[string]string
}

// newFixture writes one file per "group:name" coordinate.
func newFixture(t *testing.T, coords ...string) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), hashes: make(map[string]string)}
	for i, c := range coords {
		ex, err := ParseExclude(c)
		require.NoError(t, err)

		content := []byte(fmt.Sprintf("artifact %d %s", i, c))
		path := filepath.Join(f.dir, fmt.Sprintf("artifact-%d.jar", i))
		require.NoError(t, os.WriteFile(path, content, 0644))

		f.artifacts = append(f.artifacts, resolution.Artifact{Coordinate: ex.Coordinate, Version: "1.0", Path: path})
		f.hashes[c] = fmt.Sprintf("%x", sha256.Sum256(content))
	}
	return f
}

func (f *fixture) pin(t *testing.T, coord string) string {
	t.Helper()
	h, ok := f.hashes[coord]
	require.True(t, ok, "no artifact for %s", coord)
	return coord + ":" + h
}

func reconcile(t *testing.T, artifacts []resolution.Artifact, verify, exclude []string) (string, error) {
	t.Helper()
	policy, err := ParsePolicy(verify, exclude)
	require.NoError(t, err)

	var out bytes.Buffer
	err = NewReconciler(&out, discardLogger, nil).Reconcile(context.Background(), artifacts, policy)
	return out.String(), err
}

func TestReconcile_VerifiedDependency(t *testing.T) {
	f := newFixture(t, "com.example:lib")

	out, err := reconcile(t, f.artifacts, []string{f.pin(t, "com.example:lib")}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Verifying com.example:lib")
}

func TestReconcile_ExcludedDependency(t *testing.T) {
	f := newFixture(t, "com.example:lib")

	out, err := reconcile(t, f.artifacts, nil, []string{"com.example:lib"})
	require.NoError(t, err)
	assert.Contains(t, out, "Skipping verification for com.example:lib")
	assert.NotContains(t, out, "Verifying")
}

func TestReconcile_UnaccountedDependency(t *testing.T) {
	f := newFixture(t, "com.example:lib")

	_, err := reconcile(t, f.artifacts, nil, nil)
	require.Error(t, err)

	var unaccounted *UnaccountedError
	require.ErrorAs(t, err, &unaccounted)
	assert.Equal(t, []resolution.Coordinate{{Group: "com.example", Name: "lib"}}, unaccounted.Coordinates)
	assert.Equal(t, "No dependency for integrity assertion found for: \n- com.example:lib", err.Error())
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestReconcile_ChecksumMismatch(t *testing.T) {
	f := newFixture(t, "com.example:lib")

	out, err := reconcile(t, f.artifacts, []string{"com.example:lib:deadbeef"}, nil)
	require.Error(t, err)

	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "deadbeef", mismatch.Expected)
	assert.Equal(t, f.hashes["com.example:lib"], mismatch.Actual)
	assert.Equal(t, "Checksum failed for com.example:lib:deadbeef", err.Error())
	assert.Contains(t, out, "Verifying com.example:lib")
}

func TestReconcile_VerifyNotFoundOnEmptySet(t *testing.T) {
	_, err := reconcile(t, nil, []string{"com.example:lib:abc123"}, nil)
	require.Error(t, err)

	var notFound *VerifyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "No dependency for integrity assertion found: com.example:lib", err.Error())
}

func TestReconcile_ExcludeConsumesBeforeVerify(t *testing.T) {
	f := newFixture(t, "com.example:lib")

	out, err := reconcile(t, f.artifacts, []string{f.pin(t, "com.example:lib")}, []string{"com.example:lib"})
	require.Error(t, err)

	var notFound *VerifyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.NotContains(t, out, "Verifying")
}

func TestReconcile_ExcludeNotFound(t *testing.T) {
	f := newFixture(t, "com.example:lib")

	_, err := reconcile(t, f.artifacts, nil, []string{"com.example:gone"})
	require.Error(t, err)

	var notFound *ExcludeNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "No dependency for integrity exclusion found: com.example:gone", err.Error())
}

func TestReconcile_DuplicateExclude(t *testing.T) {
	f := newFixture(t, "com.example:lib")

	_, err := reconcile(t, f.artifacts, nil, []string{"com.example:lib", "com.example:lib"})
	var notFound *ExcludeNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestReconcile_CaseInsensitiveHash(t *testing.T) {
	f := newFixture(t, "com.example:lib")
	upper := "com.example:lib:" + strings.ToUpper(f.hashes["com.example:lib"])

	_, err := reconcile(t, f.artifacts, []string{upper}, nil)
	require.NoError(t, err)
}

func TestReconcile_FailsFastInVerifyPhase(t *testing.T) {
	f := newFixture(t, "a:one", "b:two")

	out, err := reconcile(t, f.artifacts, []string{"a:one:00", f.pin(t, "b:two")}, nil)
	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "a:one", mismatch.Coordinate.String())
	assert.NotContains(t, out, "Verifying b:two")
}

func TestReconcile_ProgressInProcessingOrder(t *testing.T) {
	f := newFixture(t, "a:one", "b:two", "c:three")

	out, err := reconcile(t, f.artifacts,
		[]string{f.pin(t, "c:three"), f.pin(t, "a:one")},
		[]string{"b:two"},
	)
	require.NoError(t, err)
	assert.Equal(t, "Skipping verification for b:two\nVerifying c:three\nVerifying a:one\n", out)
}

func TestReconcile_ListsAllUnaccountedInResolvedOrder(t *testing.T) {
	f := newFixture(t, "a:one", "b:two", "c:three", "d:four")

	_, err := reconcile(t, f.artifacts, []string{f.pin(t, "b:two")}, nil)
	var unaccounted *UnaccountedError
	require.ErrorAs(t, err, &unaccounted)
	assert.Equal(t, "No dependency for integrity assertion found for: \n- a:one\n- c:three\n- d:four", err.Error())
}

func TestReconcile_Totality(t *testing.T) {
	f := newFixture(t, "a:one", "b:two", "c:three")

	tests := []struct {
		name    string
		verify  []string
		exclude []string
		ok      bool
	}{
		{"all verified", []string{f.pin(t, "a:one"), f.pin(t, "b:two"), f.pin(t, "c:three")}, nil, true},
		{"mixed", []string{f.pin(t, "a:one")}, []string{"b:two", "c:three"}, true},
		{"all excluded", nil, []string{"c:three", "b:two", "a:one"}, true},
		{"one missing", []string{f.pin(t, "a:one")}, []string{"b:two"}, false},
		{"extra pin", []string{f.pin(t, "a:one"), "x:extra:00"}, []string{"b:two", "c:three"}, false},
		{"extra exclude", []string{f.pin(t, "a:one")}, []string{"b:two", "c:three", "x:extra"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reconcile(t, f.artifacts, tt.verify, tt.exclude)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrVerificationFailed)
			}
		})
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	f := newFixture(t, "a:one", "b:two")
	verify := []string{f.pin(t, "a:one")}

	out1, err1 := reconcile(t, f.artifacts, verify, nil)
	out2, err2 := reconcile(t, f.artifacts, verify, nil)
	assert.Equal(t, out1, out2)
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, err1.Error(), err2.Error())
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	f := newFixture(t, "a:one", "b:two")
	before := append([]resolution.Artifact(nil), f.artifacts...)

	_, err := reconcile(t, f.artifacts, []string{f.pin(t, "a:one")}, []string{"b:two"})
	require.NoError(t, err)
	assert.Equal(t, before, f.artifacts)
}

func TestReconcile_UnreadableArtifact(t *testing.T) {
	f := newFixture(t, "com.example:lib")
	pin := f.pin(t, "com.example:lib")
	require.NoError(t, os.Remove(f.artifacts[0].Path))

	_, err := reconcile(t, f.artifacts, []string{pin}, nil)
	var unreadable *ArtifactUnreadableError
	require.ErrorAs(t, err, &unreadable)
	assert.Equal(t, f.artifacts[0].Path, unreadable.Path)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestReconcile_ArtifactOutsideAllowedPaths(t *testing.T) {
	f := newFixture(t, "com.example:lib")
	policy, err := ParsePolicy([]string{f.pin(t, "com.example:lib")}, nil)
	require.NoError(t, err)

	err = NewReconciler(io.Discard, discardLogger, []string{"/opt/libs"}).
		Reconcile(context.Background(), f.artifacts, policy)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathNotAllowed)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

func TestReconcile_CanceledContext(t *testing.T) {
	f := newFixture(t, "com.example:lib")
	policy, err := ParsePolicy([]string{f.pin(t, "com.example:lib")}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewReconciler(io.Discard, discardLogger, nil).Reconcile(ctx, f.artifacts, policy)
	assert.ErrorIs(t, err, context.Canceled)
}

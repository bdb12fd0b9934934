package boltlike

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

func TestStore_StoreAndQuery_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisories.log")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Store(ctx, types.StrategicAdvisory{Timestamp: 100, Recommendation: "reduce WOB"}))
	require.NoError(t, s.Store(ctx, types.StrategicAdvisory{Timestamp: 200, Recommendation: "hold steady"}))
	require.NoError(t, s.Store(ctx, types.StrategicAdvisory{Timestamp: 300, Recommendation: "increase RPM"}))

	out, err := s.Query(ctx, 150, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(200), out[0].Timestamp)
	assert.Equal(t, int64(300), out[1].Timestamp)
}

func TestStore_Query_RespectsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisories.log")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, s.Store(ctx, types.StrategicAdvisory{Timestamp: i * 10}))
	}

	out, err := s.Query(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(10), out[0].Timestamp)
	assert.Equal(t, int64(20), out[1].Timestamp)
}

func TestOpen_RebuildsIndexFromExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisories.log")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Store(ctx, types.StrategicAdvisory{Timestamp: 42, Recommendation: "ease off"}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	out, err := s2.Query(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ease off", out[0].Recommendation)
}

func TestStore_QuerySinceExcludesOlderRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advisories.log")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Store(ctx, types.StrategicAdvisory{Timestamp: 5}))

	out, err := s.Query(ctx, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

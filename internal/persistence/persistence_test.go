package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

type fakeStore struct {
	advisories []types.StrategicAdvisory
	storeErr   error
	closed     bool
}

func (f *fakeStore) Store(_ context.Context, adv types.StrategicAdvisory) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.advisories = append(f.advisories, adv)
	return nil
}

func (f *fakeStore) Query(_ context.Context, sinceUnix int64, limit int) ([]types.StrategicAdvisory, error) {
	var out []types.StrategicAdvisory
	for _, a := range f.advisories {
		if a.Timestamp >= sinceUnix {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func TestFanout_Store_WritesToBothStores(t *testing.T) {
	primary := &fakeStore{}
	secondary := &fakeStore{}
	f := &Fanout{Primary: primary, Secondary: secondary}

	err := f.Store(context.Background(), types.StrategicAdvisory{Timestamp: 1})
	require.NoError(t, err)

	assert.Len(t, primary.advisories, 1)
	assert.Len(t, secondary.advisories, 1)
}

func TestFanout_Store_SecondaryFailureDoesNotBlockPrimary(t *testing.T) {
	primary := &fakeStore{}
	secondary := &fakeStore{storeErr: errors.New("connection refused")}
	f := &Fanout{Primary: primary, Secondary: secondary}

	err := f.Store(context.Background(), types.StrategicAdvisory{Timestamp: 1})
	require.NoError(t, err)
	assert.Len(t, primary.advisories, 1)
}

func TestFanout_Store_PrimaryFailureIsReturned(t *testing.T) {
	primary := &fakeStore{storeErr: errors.New("disk full")}
	f := &Fanout{Primary: primary}

	err := f.Store(context.Background(), types.StrategicAdvisory{Timestamp: 1})
	assert.Error(t, err)
}

func TestFanout_Query_DelegatesToPrimary(t *testing.T) {
	primary := &fakeStore{advisories: []types.StrategicAdvisory{{Timestamp: 10}, {Timestamp: 20}}}
	f := &Fanout{Primary: primary}

	out, err := f.Query(context.Background(), 15, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(20), out[0].Timestamp)
}

func TestFanout_Close_ClosesBothStores(t *testing.T) {
	primary := &fakeStore{}
	secondary := &fakeStore{}
	f := &Fanout{Primary: primary, Secondary: secondary}

	require.NoError(t, f.Close())
	assert.True(t, primary.closed)
	assert.True(t, secondary.closed)
}

func TestFanout_Close_NilSecondaryIsFine(t *testing.T) {
	primary := &fakeStore{}
	f := &Fanout{Primary: primary}

	require.NoError(t, f.Close())
	assert.True(t, primary.closed)
}

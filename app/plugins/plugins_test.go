package plugins

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetrollout/config"
	"github.com/kilianp07/fleetrollout/core/logger"
	"github.com/kilianp07/fleetrollout/core/notify"
)

func TestOpenMemoryStoreWithSeed(t *testing.T) {
	st, err := OpenStore(context.Background(), config.StoreConfig{Backend: "memory", Seed: true}, logger.Nop{})
	require.NoError(t, err)
	vs, err := st.Vehicles().List(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, vs)
}

func TestOpenSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.db")
	st, err := OpenStore(context.Background(), config.StoreConfig{Backend: "sqlite", Path: path}, logger.Nop{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	vs, err := st.Vehicles().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestOpenUnknownStore(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StoreConfig{Backend: "cassandra"}, logger.Nop{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory")
}

func TestNotifierWithoutBrokerIsNop(t *testing.T) {
	n, err := NewNotifier(config.Default(), nil)
	require.NoError(t, err)
	assert.IsType(t, notify.Nop{}, n)
}

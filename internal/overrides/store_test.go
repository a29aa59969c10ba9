package overrides

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testStore(t *testing.T) Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "overrides.db"))
}

func TestStore_LoadEmptyDatabase(t *testing.T) {
	// GIVEN
	store := testStore(t)
	err := store.Init()
	assert.NoError(t, err)

	// WHEN
	entries, err := store.Load()

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	// GIVEN
	store := testStore(t)
	err := store.Init()
	assert.NoError(t, err)

	applied := time.Now().Truncate(time.Second)
	saved := map[string]Override{
		"02-CPU 1/sensor": {Target: "02-CPU 1", Kind: KindSensor, Value: 55, AppliedAt: applied},
		"Fan 1/fanLock":   {Target: "Fan 1", Kind: KindFanLock, Value: 30, AppliedAt: applied},
	}

	// WHEN
	err = store.Save(saved)
	assert.NoError(t, err)
	loaded, err := store.Load()

	// THEN
	assert.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, KindFanLock, loaded["Fan 1/fanLock"].Kind)
	assert.Equal(t, 55.0, loaded["02-CPU 1/sensor"].Value)
}

func TestStore_SaveReplacesPreviousState(t *testing.T) {
	// GIVEN
	store := testStore(t)
	err := store.Init()
	assert.NoError(t, err)

	err = store.Save(map[string]Override{
		"Fan 1/fanSpeed": {Target: "Fan 1", Kind: KindFanSpeed, Value: 80, AppliedAt: time.Now()},
		"Fan 2/fanSpeed": {Target: "Fan 2", Kind: KindFanSpeed, Value: 80, AppliedAt: time.Now()},
	})
	assert.NoError(t, err)

	// WHEN
	err = store.Save(map[string]Override{
		"Fan 1/fanLock": {Target: "Fan 1", Kind: KindFanLock, Value: 30, AppliedAt: time.Now()},
	})
	assert.NoError(t, err)

	// THEN
	loaded, err := store.Load()
	assert.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Contains(t, loaded, "Fan 1/fanLock")
}

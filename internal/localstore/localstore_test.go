package localstore

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemory()

	v, err := s.GetString("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetString("k", "v1"))
	require.NoError(t, s.SetString("k", "v2"))

	v, err = s.GetString("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestBrowserID(t *testing.T) {
	s := NewMemory()

	bid, err := BrowserID(s)
	require.NoError(t, err)
	assert.NotEmpty(t, bid)
	assert.NotContains(t, bid, "-")

	again, err := BrowserID(s)
	require.NoError(t, err)
	assert.Equal(t, bid, again)

	other, err := BrowserID(NewMemory())
	require.NoError(t, err)
	assert.NotEqual(t, bid, other)
}

func TestBrowserIDConcurrent(t *testing.T) {
	s := NewMemory()

	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bid, err := BrowserID(s)
			assert.NoError(t, err)
			ids[i] = bid
		}(i)
	}
	wg.Wait()

	stored, err := s.GetString(KeyBrowserID)
	require.NoError(t, err)
	for _, id := range ids {
		assert.Equal(t, stored, id)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vsize.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.GetString("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetString("k", "v1"))
	require.NoError(t, s.SetString("k", "v2"))

	v, err = s.GetString("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vsize.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	bid, err := BrowserID(s)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	again, err := BrowserID(s)
	require.NoError(t, err)
	assert.Equal(t, bid, again)
}

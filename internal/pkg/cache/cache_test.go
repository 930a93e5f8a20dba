package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetDelete(t *testing.T) {
	t.Parallel()
	s := NewStore(time.Minute)

	s.Set("k1", 42)
	s.Set("k2", "value")

	v, ok := s.Get("k1")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	s.Delete("k1", "missing")
	_, ok = s.Get("k1")
	assert.False(t, ok)
	_, ok = s.Get("k2")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()
	s := NewStore(time.Minute)

	now := time.Now()
	s.now = func() time.Time { return now }
	s.Set("k", "v")

	s.now = func() time.Time { return now.Add(59 * time.Second) }
	_, ok := s.Get("k")
	assert.True(t, ok)

	s.now = func() time.Time { return now.Add(61 * time.Second) }
	_, ok = s.Get("k")
	assert.False(t, ok)
}

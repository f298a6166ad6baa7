package locking

import (
	"testing"
	"time"

	"github.com/ejoffe/gitun/git"
	"github.com/stretchr/testify/require"
)

func TestParseRegistry(t *testing.T) {
	assert := require.New(t)

	registry, err := ParseRegistry(nil)
	assert.NoError(err)
	assert.Empty(registry.Locks)

	registry, err = ParseRegistry([]byte("locks:\n  - id: l1\n    path: Assets/Scenes/Level1.unity\n    owner: bob\n    lockedAt: 2024-03-01T09:30:00Z\n"))
	assert.NoError(err)
	assert.Equal([]Lock{{
		ID:       "l1",
		Path:     "Assets/Scenes/Level1.unity",
		Owner:    "bob",
		LockedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}}, registry.Locks)

	_, err = ParseRegistry([]byte("locks: [unclosed"))
	assert.ErrorIs(err, git.ErrUnexpectedOutputShape)
}

func TestRegistryRoundTripSortsByPath(t *testing.T) {
	assert := require.New(t)
	registry := &Registry{}
	registry.Add(Lock{ID: "2", Path: "Assets/Scenes/b.unity", Owner: "bob"})
	registry.Add(Lock{ID: "1", Path: "./Assets/Scenes/a.unity", Owner: "alice"})

	encoded, err := registry.Marshal()
	assert.NoError(err)
	decoded, err := ParseRegistry(encoded)
	assert.NoError(err)
	assert.Equal("Assets/Scenes/a.unity", decoded.Locks[0].Path)
	assert.Equal("Assets/Scenes/b.unity", decoded.Locks[1].Path)
}

func TestRegistryFindAndRemove(t *testing.T) {
	assert := require.New(t)
	registry := &Registry{}
	registry.Add(Lock{ID: "1", Path: "Assets/Scenes/a.unity", Owner: "alice"})

	lock, ok := registry.Find("./Assets/Scenes/a.unity")
	assert.True(ok)
	assert.Equal("alice", lock.Owner)

	_, ok = registry.Find("Assets/Scenes/b.unity")
	assert.False(ok)

	assert.True(registry.Remove("Assets/Scenes/a.unity"))
	assert.False(registry.Remove("Assets/Scenes/a.unity"))
	assert.Empty(registry.Locks)
}

func TestLockedByOthers(t *testing.T) {
	registry := &Registry{}
	registry.Add(Lock{ID: "1", Path: "Assets/Scenes/a.unity", Owner: "alice"})
	registry.Add(Lock{ID: "2", Path: "Assets/Scenes/b.unity", Owner: "bob"})

	locked := registry.LockedByOthers("alice", []string{"Assets/Scenes/a.unity", "Assets/Scenes/b.unity", "README.md"})
	require.Len(t, locked, 1)
	require.Equal(t, "bob", locked[0].Owner)

	err := error(&LockedError{Path: locked[0].Path, Owner: locked[0].Owner})
	require.ErrorIs(t, err, ErrLocked)
	require.ErrorIs(t, err, git.ErrRepositoryStateConflict)
	require.EqualError(t, err, "Assets/Scenes/b.unity is locked by bob")
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"Assets/Scenes/a.unity":    "Assets/Scenes/a.unity",
		"./Assets/Scenes/a.unity":  "Assets/Scenes/a.unity",
		" Assets//Scenes/a.unity ": "Assets/Scenes/a.unity",
		"Assets/Scenes/../a.unity": "Assets/a.unity",
	}
	for input, expect := range tests {
		require.Equal(t, expect, NormalizePath(input), input)
	}
}

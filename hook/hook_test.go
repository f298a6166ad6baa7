package hook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/git/mockgit"
	"github.com/stretchr/testify/require"
)

const registry = `locks:
  - id: b
    path: Assets/Scenes/Level1.unity
    owner: bob
    lockedAt: 2024-03-01T09:30:00Z
  - id: a
    path: Assets/Scenes/Boss.unity
    owner: alice
    lockedAt: 2024-03-01T09:30:00Z
`

func TestLockedStagedFiles(t *testing.T) {
	gitmock := mockgit.NewMockGit(t)
	gitmock.Expect("git diff --cached --name-only").Respond("Assets/Scenes/Level1.unity\nAssets/Scenes/Boss.unity\nREADME.md\n")
	gitmock.Expect("git config user.name").Respond("alice")
	gitmock.Expect("git show locking:locks.yml").Respond(registry)

	locked, err := LockedStagedFiles(context.Background(), config.DefaultConfig(), gitmock)
	require.NoError(t, err)
	require.Len(t, locked, 1)
	require.Equal(t, "Assets/Scenes/Level1.unity", locked[0].Path)
	require.Equal(t, "bob", locked[0].Owner)
	gitmock.ExpectationsMet()
}

func TestLockedStagedFilesNothingStaged(t *testing.T) {
	gitmock := mockgit.NewMockGit(t)
	gitmock.Expect("git diff --cached --name-only")

	locked, err := LockedStagedFiles(context.Background(), config.DefaultConfig(), gitmock)
	require.NoError(t, err)
	require.Empty(t, locked)
	gitmock.ExpectationsMet()
}

func fakeBinary(t *testing.T) string {
	bin := filepath.Join(t.TempDir(), hookBinary)
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	orig := lookPath
	lookPath = func(string) (string, error) { return bin, nil }
	t.Cleanup(func() { lookPath = orig })
	return bin
}

func TestInstallPreCommitHook(t *testing.T) {
	assert := require.New(t)
	root := t.TempDir()
	bin := fakeBinary(t)
	var out bytes.Buffer

	assert.NoError(InstallPreCommitHook(root, &out))
	assert.Equal("Installed pre-commit hook in .git/hooks/pre-commit\n", out.String())
	link, err := os.Readlink(filepath.Join(root, ".git", "hooks", "pre-commit"))
	assert.NoError(err)
	assert.Equal(bin, link)

	out.Reset()
	assert.NoError(InstallPreCommitHook(root, &out))
	assert.Empty(out.String())
}

func TestInstallPreCommitHookOtherHook(t *testing.T) {
	root := t.TempDir()
	fakeBinary(t)
	path := filepath.Join(root, ".git", "hooks", "pre-commit")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	err := InstallPreCommitHook(root, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrOtherHookInstalled)
}

func TestInstallPreCommitHookMissingBinary(t *testing.T) {
	orig := lookPath
	lookPath = func(file string) (string, error) { return "", errors.New("executable file not found in $PATH") }
	t.Cleanup(func() { lookPath = orig })

	err := InstallPreCommitHook(t.TempDir(), &bytes.Buffer{})
	require.ErrorContains(t, err, "gitun-lockcheck must be installed")
}

package diff

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/git"
	"github.com/ejoffe/gitun/git/mockgit"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSaver(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	gitmock := mockgit.NewMockGit(t)
	builder := git.NewBuilder(config.DefaultConfig())
	saver := NewSnapshotSaver(gitmock, builder, "Assets/Scenes", "Assets/DiffPrefabs")

	gitmock.Expect("mkdir -p -- Assets/DiffPrefabs")
	gitmock.Expect("git show feature:Assets/Scenes/Level1.unity").Respond("%YAML 1.1\n")
	gitmock.Expect("git show feature:Assets/Scenes/Sub/Boss.unity").Respond("boss\n")

	assert.NoError(saver.CreatePrefab(ctx, ChangedObject{Path: "Assets/Scenes/Level1.unity", Status: StatusModified, Ref: "feature"}))
	assert.NoError(saver.CreatePrefab(ctx, ChangedObject{Path: "Assets/Scenes/Old.unity", Status: StatusDeleted, Ref: "feature"}))
	assert.NoError(saver.CreatePrefab(ctx, ChangedObject{Path: "Assets/Scenes/Sub/Boss.unity", Status: StatusAdded, Ref: "feature"}))
	gitmock.ExpectationsMet()

	content, err := os.ReadFile(filepath.Join(gitmock.RootDir(), "Assets", "DiffPrefabs", "Sub", "Boss.unity"))
	assert.NoError(err)
	assert.Equal("boss\n", string(content))
}

func TestSnapshotSaverMissingRef(t *testing.T) {
	gitmock := mockgit.NewMockGit(t)
	builder := git.NewBuilder(config.DefaultConfig())
	saver := NewSnapshotSaver(gitmock, builder, "Assets/Scenes", "Assets/DiffPrefabs")

	gitmock.Expect("mkdir -p -- Assets/DiffPrefabs")
	err := saver.CreatePrefab(context.Background(), ChangedObject{Path: "Assets/Scenes/Level1.unity", Status: StatusModified})
	require.ErrorIs(t, err, git.ErrInvalidArgument)
	gitmock.ExpectationsMet()
}

func TestArtifactPath(t *testing.T) {
	saver := NewSnapshotSaver(nil, nil, "Assets/Scenes/", "Assets/DiffPrefabs")
	require.Equal(t, filepath.Join("Assets", "DiffPrefabs", "Level1.unity"),
		saver.ArtifactPath(ChangedObject{Path: "Assets/Scenes/Level1.unity"}))
	require.Equal(t, filepath.Join("Assets", "DiffPrefabs", "Other", "x.png"),
		saver.ArtifactPath(ChangedObject{Path: "Other/x.png"}))
}

package diff

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/ejoffe/gitun/git"
	"github.com/rs/zerolog/log"
)

// SnapshotSaver stores the source branch version of each changed object as a
// standalone file under the artifacts directory, mirroring its location
// below the asset directory.
type SnapshotSaver struct {
	executor     git.Executor
	builder      *git.Builder
	assetDir     string
	artifactsDir string
	prepared     bool
}

// NewSnapshotSaver returns a saver writing below artifactsDir.
func NewSnapshotSaver(executor git.Executor, builder *git.Builder, assetDir string, artifactsDir string) *SnapshotSaver {
	return &SnapshotSaver{
		executor:     executor,
		builder:      builder,
		assetDir:     assetDir,
		artifactsDir: artifactsDir,
	}
}

func (s *SnapshotSaver) CreatePrefab(ctx context.Context, obj ChangedObject) error {
	if obj.Status == StatusDeleted {
		log.Debug().Str("path", obj.Path).Msg("skipping deleted object")
		return nil
	}
	if !s.prepared {
		mkdir, err := s.builder.Mkdir(s.artifactsDir)
		if err != nil {
			return err
		}
		err = s.executor.Execute(ctx, mkdir)
		if err != nil {
			return err
		}
		s.prepared = true
	}
	show, err := s.builder.Show(obj.Ref, obj.Path)
	if err != nil {
		return err
	}
	return s.executor.ExecuteToFile(ctx, show, s.ArtifactPath(obj))
}

// ArtifactPath is where obj is stored, relative to the repository root.
func (s *SnapshotSaver) ArtifactPath(obj ChangedObject) string {
	rel := path.Clean(filepath.ToSlash(obj.Path))
	prefix := strings.TrimSuffix(path.Clean(filepath.ToSlash(s.assetDir)), "/") + "/"
	rel = strings.TrimPrefix(rel, prefix)
	return filepath.Join(s.artifactsDir, filepath.FromSlash(rel))
}

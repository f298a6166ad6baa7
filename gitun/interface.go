package gitun

import (
	"context"

	"github.com/ejoffe/gitun/auditlog"
	"github.com/ejoffe/gitun/diff"
	"github.com/ejoffe/gitun/locking"
)

// GitunInterface is what a front end (cli, editor panel) calls.
type GitunInterface interface {
	RunSetup(ctx context.Context) error
	RunMain(ctx context.Context, targetBranch string, sourceBranch string) (*MainReport, error)
	LockFile(ctx context.Context, path string) ([]string, error)
	UnlockFile(ctx context.Context, path string) ([]string, error)
	LockStatus(ctx context.Context) (*locking.Registry, error)
	FetchBranchList(ctx context.Context) ([]string, error)
}

// DiffObjectExtractor reads the diff artifact written by the first step of
// RunMain and returns the objects it touches.
type DiffObjectExtractor interface {
	GetDiffObjects(ctx context.Context) ([]diff.ChangedObject, error)
}

// ArtifactSaver persists a changed object as a standalone artifact.
type ArtifactSaver interface {
	CreatePrefab(ctx context.Context, obj diff.ChangedObject) error
}

// BatchRecorder stores audit batches.
type BatchRecorder interface {
	Begin(protocol string) *auditlog.Batch
	Write(batch *auditlog.Batch) error
}

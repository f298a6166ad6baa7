// Package locking keeps exclusive file locks in a registry file that only
// exists on the locking branch. Locks are committed and pushed so every
// clone of the repository sees them.
package locking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/git"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FileLocking acquires and releases locks.
type FileLocking struct {
	config   *config.Config
	executor git.Executor
	builder  *git.Builder
	now      func() time.Time
	newID    func() string
}

// NewFileLocking returns a FileLocking running its commands through executor.
func NewFileLocking(cfg *config.Config, executor git.Executor, builder *git.Builder) *FileLocking {
	return &FileLocking{
		config:   cfg,
		executor: executor,
		builder:  builder,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// LockFile claims filePath for the current git user. Locking a file the
// user already holds changes nothing.
func (fl *FileLocking) LockFile(ctx context.Context, filePath string) error {
	if filePath == "" {
		return fmt.Errorf("lock path is empty: %w", git.ErrInvalidArgument)
	}
	owner, err := fl.owner(ctx)
	if err != nil {
		return err
	}
	return fl.onLockingBranch(ctx, func(registry *Registry) (bool, error) {
		if held, ok := registry.Find(filePath); ok {
			if held.Owner != owner {
				return false, &LockedError{Path: held.Path, Owner: held.Owner}
			}
			log.Debug().Str("path", held.Path).Msg("lock already held")
			return false, nil
		}
		registry.Add(Lock{
			ID:       fl.newID(),
			Path:     filePath,
			Owner:    owner,
			LockedAt: fl.now().UTC().Truncate(time.Second),
		})
		return true, nil
	})
}

// UnlockFile releases the lock the current git user holds on filePath.
func (fl *FileLocking) UnlockFile(ctx context.Context, filePath string) error {
	if filePath == "" {
		return fmt.Errorf("lock path is empty: %w", git.ErrInvalidArgument)
	}
	owner, err := fl.owner(ctx)
	if err != nil {
		return err
	}
	return fl.onLockingBranch(ctx, func(registry *Registry) (bool, error) {
		held, ok := registry.Find(filePath)
		if !ok {
			return false, nil
		}
		if held.Owner != owner {
			return false, &LockedError{Path: held.Path, Owner: held.Owner}
		}
		registry.Remove(filePath)
		return true, nil
	})
}

// Status reads the registry from the locking branch without switching to it.
func (fl *FileLocking) Status(ctx context.Context) (*Registry, error) {
	show, err := fl.builder.Show(fl.config.Repo.LockingBranch, fl.config.Repo.LockRegistryFile)
	if err != nil {
		return nil, err
	}
	content, err := fl.executor.ExecuteCapturingText(ctx, show)
	if err != nil {
		var cmdErr *git.CommandError
		if errors.As(err, &cmdErr) && registryMissing(cmdErr.Stderr) {
			// nobody locked anything yet
			return &Registry{}, nil
		}
		return nil, err
	}
	return ParseRegistry([]byte(content))
}

// registryMissing tells if 'git show' failed because the branch has no
// registry file, as opposed to a missing branch.
func registryMissing(stderr string) bool {
	return strings.Contains(stderr, "does not exist in") ||
		strings.Contains(stderr, "exists on disk, but not in")
}

// currentBranch is the branch to return to once the registry is updated.
// A detached HEAD falls back to the primary branch.
func (fl *FileLocking) currentBranch(ctx context.Context) (string, error) {
	branch, err := git.GetLocalBranchName(ctx, fl.executor, fl.builder)
	if errors.Is(err, git.ErrUnexpectedOutputShape) {
		log.Warn().Str("branch", fl.config.Repo.PrimaryBranch).Msg("HEAD is detached, returning to the primary branch")
		return fl.config.Repo.PrimaryBranch, nil
	}
	return branch, err
}

func (fl *FileLocking) owner(ctx context.Context) (string, error) {
	owner, err := fl.executor.ExecuteCapturingText(ctx, fl.builder.UserName())
	if err != nil {
		return "", fmt.Errorf("git user.name must be configured to lock files: %w", err)
	}
	if owner == "" {
		return "", &git.OutputShapeError{Output: owner, Reason: "git user.name is empty"}
	}
	return owner, nil
}

// onLockingBranch switches to the locking branch, brings it up to date and
// hands the registry to update. When update reports a change the registry
// is written, committed and pushed. The branch checked out before is
// restored whatever happens once the first switch succeeded.
func (fl *FileLocking) onLockingBranch(ctx context.Context,
	update func(*Registry) (bool, error)) (err error) {

	repo := fl.config.Repo
	switchCmd, err := fl.builder.Switch(repo.LockingBranch)
	if err != nil {
		return err
	}
	returnTo, err := fl.currentBranch(ctx)
	if err != nil {
		return err
	}
	switchBackCmd, err := fl.builder.Switch(returnTo)
	if err != nil {
		return err
	}
	err = fl.executor.Execute(ctx, switchCmd)
	if err != nil {
		return err
	}
	defer func() {
		switchErr := fl.executor.Execute(ctx, switchBackCmd)
		if switchErr != nil {
			err = errors.Join(err, switchErr)
		}
	}()

	pull, err := fl.builder.Pull(repo.LockingBranch)
	if err != nil {
		return err
	}
	err = fl.executor.Execute(ctx, pull)
	if err != nil {
		return err
	}

	registryPath := filepath.Join(fl.executor.RootDir(), repo.LockRegistryFile)
	content, err := os.ReadFile(filepath.Clean(registryPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read lock registry: %w", err)
	}
	registry, err := ParseRegistry(content)
	if err != nil {
		return err
	}

	changed, err := update(registry)
	if err != nil || !changed {
		return err
	}

	encoded, err := registry.Marshal()
	if err != nil {
		return err
	}
	write, err := fl.builder.OverrideFileContent(string(encoded), repo.LockRegistryFile)
	if err != nil {
		return err
	}
	commit, err := fl.builder.Commit(repo.LockRegistryFile)
	if err != nil {
		return err
	}
	push, err := fl.builder.Push(repo.LockingBranch)
	if err != nil {
		return err
	}
	for _, cmd := range []git.Command{write, commit, push} {
		err = fl.executor.Execute(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

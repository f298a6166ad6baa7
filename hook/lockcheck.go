// Package hook keeps commits from touching files somebody else has locked.
package hook

import (
	"context"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/git"
	"github.com/ejoffe/gitun/locking"
	"github.com/rs/zerolog/log"
)

// LockedStagedFiles returns the locks other users hold on files staged for
// the next commit. The registry is read from the locking branch as
// committed, a lock that was never pushed doesn't count.
func LockedStagedFiles(ctx context.Context, cfg *config.Config, executor git.Executor) ([]locking.Lock, error) {
	builder := git.NewBuilder(cfg)

	staged, err := executor.ExecuteCapturingLines(ctx, builder.StagedFiles())
	if err != nil {
		return nil, err
	}
	if len(staged) == 0 {
		return nil, nil
	}

	owner, err := executor.ExecuteCapturingText(ctx, builder.UserName())
	if err != nil {
		return nil, err
	}
	registry, err := locking.NewFileLocking(cfg, executor, builder).Status(ctx)
	if err != nil {
		return nil, err
	}
	locked := registry.LockedByOthers(owner, staged)
	log.Debug().Int("staged", len(staged)).Int("locked", len(locked)).Msg("lock check")
	return locked, nil
}

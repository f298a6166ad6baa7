package gitun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/ejoffe/gitun/auditlog"
	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/diff"
	"github.com/ejoffe/gitun/git"
	"github.com/ejoffe/gitun/locking"
	"github.com/ejoffe/profiletimer"
	"github.com/rs/zerolog/log"
)

// NewGitun constructs the workflow orchestrator. Diff objects are read from
// the diff artifact and saved as snapshots under the artifacts directory
// unless other collaborators are set.
func NewGitun(cfg *config.Config, executor git.Executor, recorder BatchRecorder) *gitun {
	builder := git.NewBuilder(cfg)
	exec := &recordingExecutor{inner: executor}

	g := &gitun{
		config:       cfg,
		builder:      builder,
		exec:         exec,
		recorder:     recorder,
		locker:       locking.NewFileLocking(cfg, exec, builder),
		output:       io.Discard,
		profiletimer: profiletimer.StartNoopTimer(),
	}
	g.extractor = diff.NewArtifactExtractor(filepath.Join(executor.RootDir(), cfg.Repo.DiffArtifactFile))
	g.saver = diff.NewSnapshotSaver(exec, builder, cfg.Repo.AssetDir, cfg.Repo.ArtifactsDir)
	return g
}

type gitun struct {
	mu sync.Mutex

	config    *config.Config
	builder   *git.Builder
	exec      *recordingExecutor
	recorder  BatchRecorder
	extractor DiffObjectExtractor
	saver     ArtifactSaver
	locker    *locking.FileLocking

	output       io.Writer
	debug        bool
	profiletimer profiletimer.Timer
}

// MainReport describes what a RunMain call did.
type MainReport struct {
	MergeBase string
	Head      string
	Objects   []diff.ChangedObject
	Batches   []*auditlog.Batch
}

// SetDiffObjectExtractor replaces the default diff artifact parser.
func (g *gitun) SetDiffObjectExtractor(extractor DiffObjectExtractor) {
	g.extractor = extractor
}

// SetArtifactSaver replaces the default snapshot saver.
func (g *gitun) SetArtifactSaver(saver ArtifactSaver) {
	g.saver = saver
}

// SetOutput sets where progress messages are printed.
func (g *gitun) SetOutput(w io.Writer) {
	g.output = w
}

// EnableDebug turns on per step timing, printed by DebugPrintSummary.
func (g *gitun) EnableDebug() {
	g.debug = true
	g.profiletimer = profiletimer.StartProfileTimer()
}

// RunSetup bootstraps the repository: ignore file, locking branch with an
// ignore file that only lets the lock registry through, first commit of the
// project on the primary branch, remote and first push.
//
// There is no rollback, a failure leaves the steps that already ran in place.
func (g *gitun) RunSetup(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	repo := g.config.Repo
	b := g.builder

	// everything is built before anything runs so bad input never leaves a
	// half set up repository behind
	var cmds []git.Command
	add := func(cmd git.Command, err error) error {
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
		return nil
	}
	lockingIgnore := fmt.Sprintf("*\n!%s\n", repo.LockRegistryFile)
	err := errors.Join(
		add(b.Init()),
		add(b.Touch("", repo.IgnoreFile)),
		add(b.WriteLines(g.config.Ignore(), repo.IgnoreFile)),
		add(b.WriteLines([]string{repo.LogFile, repo.LockRegistryFile, repo.DiffArtifactFile}, repo.IgnoreFile)),
		add(b.Commit(repo.IgnoreFile)),
		add(b.CreateBranch(repo.LockingBranch)),
		add(b.Switch(repo.LockingBranch)),
		add(b.OverrideFileContent(lockingIgnore, repo.IgnoreFile)),
		add(b.Commit(repo.IgnoreFile)),
		add(b.Switch(repo.PrimaryBranch)),
		add(b.Commit(".")),
		add(b.AddRemote()),
		add(b.PushAllBranches()),
	)
	if err != nil {
		return err
	}

	_, err = g.protocol("setup", func() error {
		for _, cmd := range cmds {
			err := g.exec.Execute(ctx, cmd)
			if err != nil {
				return fmt.Errorf("setup stopped at %s: %w", cmd.Intent, err)
			}
		}
		return nil
	})
	if err == nil {
		fmt.Fprintf(g.output, "repository set up, locks are tracked on %s\n", repo.LockingBranch)
	}
	return err
}

// RunMain brings the changes of sourceBranch into targetBranch without
// merging binary content: the changed objects are extracted from the diff
// since the merge base and committed as standalone artifacts, then the
// branches are merged preferring the target side.
func (g *gitun) RunMain(ctx context.Context, targetBranch string, sourceBranch string) (*MainReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	repo := g.config.Repo
	b := g.builder
	mergeBaseCmd, err := b.MergeBase(targetBranch, sourceBranch)
	if err != nil {
		return nil, err
	}
	revParseCmd, err := b.RevParse(sourceBranch)
	if err != nil {
		return nil, err
	}
	mkdirCmd, err := b.Mkdir(repo.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	commitCmd, err := b.Commit(repo.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	switchCmd, err := b.Switch(targetBranch)
	if err != nil {
		return nil, err
	}
	mergeCmd, err := b.MergeOurs(sourceBranch)
	if err != nil {
		return nil, err
	}

	report := &MainReport{}

	// 1. write the diff between the merge base and the source head
	batch, err := g.protocol("diff", func() error {
		mergeBase, err := g.exec.ExecuteCapturingText(ctx, mergeBaseCmd)
		if err != nil {
			return err
		}
		head, err := g.exec.ExecuteCapturingText(ctx, revParseCmd)
		if err != nil {
			return err
		}
		report.MergeBase, report.Head = mergeBase, head
		diffCmd, err := b.Diff(mergeBase, head)
		if err != nil {
			return err
		}
		return g.exec.ExecuteToFile(ctx, diffCmd, repo.DiffArtifactFile)
	})
	report.Batches = append(report.Batches, batch)
	if err != nil {
		return report, err
	}

	// 2. save every changed object as an artifact
	batch, err = g.protocol("materialize", func() error {
		objects, err := g.extractor.GetDiffObjects(ctx)
		if err != nil {
			return err
		}
		for i := range objects {
			if objects[i].Ref == "" {
				objects[i].Ref = sourceBranch
			}
			err = g.saver.CreatePrefab(ctx, objects[i])
			if err != nil {
				return fmt.Errorf("save %s: %w", objects[i].Path, err)
			}
			log.Debug().Str("path", objects[i].Path).Str("status", string(objects[i].Status)).Msg("saved artifact")
		}
		report.Objects = objects
		return nil
	})
	report.Batches = append(report.Batches, batch)
	if err != nil {
		return report, err
	}

	// 3. commit the artifacts and merge, the merge never has to reconcile
	// binary content since the source changes already live in the artifacts
	batch, err = g.protocol("pseudo-merge", func() error {
		for _, cmd := range []git.Command{mkdirCmd, commitCmd, switchCmd, mergeCmd} {
			err := g.exec.Execute(ctx, cmd)
			if err != nil {
				return err
			}
		}
		return nil
	})
	report.Batches = append(report.Batches, batch)
	if err != nil {
		return report, err
	}

	fmt.Fprintf(g.output, "merged %s into %s, %d changed objects saved to %s\n",
		sourceBranch, targetBranch, len(report.Objects), repo.ArtifactsDir)
	return report, nil
}

// LockFile claims path on the locking branch and returns the commands that ran.
func (g *gitun) LockFile(ctx context.Context, path string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	batch, err := g.protocol("lock", func() error {
		return g.locker.LockFile(ctx, path)
	})
	return batch.Commands(), err
}

// UnlockFile releases a lock held by the current user.
func (g *gitun) UnlockFile(ctx context.Context, path string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	batch, err := g.protocol("unlock", func() error {
		return g.locker.UnlockFile(ctx, path)
	})
	return batch.Commands(), err
}

// LockStatus returns the lock registry as committed on the locking branch.
func (g *gitun) LockStatus(ctx context.Context) (*locking.Registry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locker.Status(ctx)
}

// FetchBranchList returns the local branch names.
func (g *gitun) FetchBranchList(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lines, err := g.exec.ExecuteCapturingLines(ctx, g.builder.BranchList())
	if err != nil {
		return nil, err
	}
	return git.ParseBranchList(lines), nil
}

// DebugPrintSummary prints debug info if debug mode is enabled.
func (g *gitun) DebugPrintSummary() {
	if g.debug {
		err := g.profiletimer.ShowResults()
		if err != nil {
			log.Error().Err(err).Msg("profile timer")
		}
	}
}

// protocol runs fn with a fresh audit batch. The batch is written once fn
// returns, including when it fails part way.
func (g *gitun) protocol(name string, fn func() error) (batch *auditlog.Batch, err error) {
	batch = g.recorder.Begin(name)
	g.exec.batch = batch
	g.profiletimer.Step(name + "::Start")
	log.Debug().Str("protocol", name).Str("batch", batch.ID).Msg("protocol start")

	defer func() {
		g.exec.batch = nil
		if err != nil {
			batch.Fail(err)
		}
		writeErr := g.recorder.Write(batch)
		if writeErr != nil {
			log.Error().Err(writeErr).Str("batch", batch.ID).Msg("audit log write failed")
			err = errors.Join(err, writeErr)
		}
		g.profiletimer.Step(name + "::End")
	}()

	err = fn()
	return batch, err
}

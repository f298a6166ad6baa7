package gitun

import (
	"context"
	"strings"

	"github.com/ejoffe/gitun/auditlog"
	"github.com/ejoffe/gitun/git"
)

// recordingExecutor adds every command, and every captured result, to the
// batch of the protocol currently running.
type recordingExecutor struct {
	inner git.Executor
	batch *auditlog.Batch
}

func (r *recordingExecutor) command(cmd git.Command) {
	if r.batch != nil {
		r.batch.Command(cmd.String())
	}
}

func (r *recordingExecutor) result(output string) {
	if r.batch != nil {
		r.batch.Result(output)
	}
}

func (r *recordingExecutor) Execute(ctx context.Context, cmd git.Command) error {
	r.command(cmd)
	return r.inner.Execute(ctx, cmd)
}

func (r *recordingExecutor) ExecuteCapturingText(ctx context.Context, cmd git.Command) (string, error) {
	r.command(cmd)
	output, err := r.inner.ExecuteCapturingText(ctx, cmd)
	if err != nil {
		return "", err
	}
	r.result(output)
	return output, nil
}

func (r *recordingExecutor) ExecuteCapturingLines(ctx context.Context, cmd git.Command) ([]string, error) {
	r.command(cmd)
	lines, err := r.inner.ExecuteCapturingLines(ctx, cmd)
	if err != nil {
		return nil, err
	}
	r.result(strings.Join(lines, "\n"))
	return lines, nil
}

func (r *recordingExecutor) ExecuteToFile(ctx context.Context, cmd git.Command, outPath string) error {
	r.command(cmd)
	return r.inner.ExecuteToFile(ctx, cmd, outPath)
}

func (r *recordingExecutor) RootDir() string {
	return r.inner.RootDir()
}

package git

import "context"

// Executor runs built commands against the repository. Commands run
// synchronously: a call returns only after the last step has finished.
type Executor interface {
	// Execute runs cmd and discards its output.
	Execute(ctx context.Context, cmd Command) error

	// ExecuteCapturingText runs cmd and returns its trimmed stdout.
	ExecuteCapturingText(ctx context.Context, cmd Command) (string, error)

	// ExecuteCapturingLines runs cmd and returns its stdout split in lines.
	ExecuteCapturingLines(ctx context.Context, cmd Command) ([]string, error)

	// ExecuteToFile runs cmd with the stdout of its last step written to outPath.
	ExecuteToFile(ctx context.Context, cmd Command, outPath string) error

	// RootDir is the directory commands run in.
	RootDir() string
}

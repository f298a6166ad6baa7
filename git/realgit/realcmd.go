package realgit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/git"
	"github.com/rs/zerolog/log"
)

// NewGitCmd returns a new executor rooted at the top level of the git
// repository containing dir. When dir isn't inside a repository yet (before
// setup) the executor is rooted at dir itself.
func NewGitCmd(cfg *config.Config, dir string) *gitcmd {
	initcmd := &gitcmd{
		config:  cfg,
		rootdir: dir,
		timeout: cfg.CommandTimeout(),
	}
	toplevel := git.Command{Steps: []git.Step{{Program: "git", Args: []string{"rev-parse", "--show-toplevel"}}}}
	rootdir, err := initcmd.ExecuteCapturingText(context.Background(), toplevel)
	if err != nil || rootdir == "" {
		log.Debug().Str("dir", dir).Msg("not inside a git repository, using dir as root")
		return initcmd
	}
	initcmd.rootdir = rootdir
	return initcmd
}

type gitcmd struct {
	config  *config.Config
	rootdir string
	timeout time.Duration
}

func (c *gitcmd) Execute(ctx context.Context, cmd git.Command) error {
	return c.run(ctx, cmd, nil)
}

func (c *gitcmd) ExecuteCapturingText(ctx context.Context, cmd git.Command) (string, error) {
	var out bytes.Buffer
	err := c.run(ctx, cmd, &out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func (c *gitcmd) ExecuteCapturingLines(ctx context.Context, cmd git.Command) ([]string, error) {
	output, err := c.ExecuteCapturingText(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

func (c *gitcmd) ExecuteToFile(ctx context.Context, cmd git.Command, outPath string) error {
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(c.rootdir, outPath)
	}
	err := os.MkdirAll(filepath.Dir(outPath), 0o755)
	if err != nil {
		return fmt.Errorf("create directory for %s: %w", outPath, err)
	}
	outfile, err := os.Create(filepath.Clean(outPath))
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	err = c.run(ctx, cmd, outfile)
	closeErr := outfile.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func (c *gitcmd) RootDir() string {
	return c.rootdir
}

// run executes the steps of cmd in order. The stdout of the last step that
// runs is copied to output when output is not nil.
func (c *gitcmd) run(ctx context.Context, cmd git.Command, output io.Writer) error {
	if len(cmd.Steps) == 0 {
		return &git.ArgumentError{Intent: cmd.Intent, Name: "steps", Reason: "is empty"}
	}

	log.Debug().Str("intent", cmd.Intent.String()).Msg(cmd.String())
	if c.config.User.LogGitCommands {
		fmt.Printf("> %s\n", cmd.String())
	}

	for i, step := range cmd.Steps {
		last := i == len(cmd.Steps)-1
		var stdout bytes.Buffer
		err := c.runStep(ctx, step, &stdout)
		if step.StopOnSuccess {
			if err == nil {
				log.Debug().Str("step", step.String()).Msg("guard succeeded, skipping remaining steps")
				return nil
			}
			// a guard that could not run at all is still a failure
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if last && output != nil {
			_, err = io.Copy(output, &stdout)
			if err != nil {
				return fmt.Errorf("capture output of %s: %w", step.String(), err)
			}
		}
	}
	return nil
}

func (c *gitcmd) runStep(ctx context.Context, step git.Step, stdout *bytes.Buffer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, step.Program, step.Args...)
	cmd.Dir = c.rootdir
	cmd.Env = commandEnv()
	if step.Stdin != "" {
		cmd.Stdin = strings.NewReader(step.Stdin)
	}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s: %w", c.timeout, ctx.Err())
		}
		log.Debug().Str("step", step.String()).Str("stderr", stderr.String()).Err(err).Msg("step failed")
		return git.NewCommandError(step.String(), stdout.String(), stderr.String(), err)
	}
	return nil
}

// commandEnv is the process environment with the editor disabled, merges and
// commits must never wait on an interactive prompt.
func commandEnv() []string {
	env := []string{"GIT_EDITOR=true", "GIT_TERMINAL_PROMPT=0"}
	for _, entry := range os.Environ() {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}
		switch strings.ToUpper(parts[0]) {
		case "GIT_EDITOR", "EDITOR", "GIT_TERMINAL_PROMPT":
			continue
		}
		env = append(env, entry)
	}
	return env
}

package mockgit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ejoffe/gitun/git"
	"github.com/stretchr/testify/require"
)

// NewMockGit returns an executor that checks commands against an ordered
// list of expectations. Files written by ExecuteToFile land in a temp dir.
func NewMockGit(t *testing.T) *Mock {
	return &Mock{
		assert:  require.New(t),
		rootdir: t.TempDir(),
	}
}

type Mock struct {
	assert   *require.Assertions
	rootdir  string
	expected []expectation
	executed []string
}

type expectation struct {
	cmd    string
	stdin  []string
	output string
	err    error
}

func (m *Mock) Execute(ctx context.Context, cmd git.Command) error {
	_, err := m.next(cmd)
	return err
}

func (m *Mock) ExecuteCapturingText(ctx context.Context, cmd git.Command) (string, error) {
	output, err := m.next(cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

func (m *Mock) ExecuteCapturingLines(ctx context.Context, cmd git.Command) ([]string, error) {
	output, err := m.ExecuteCapturingText(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

func (m *Mock) ExecuteToFile(ctx context.Context, cmd git.Command, outPath string) error {
	output, err := m.next(cmd)
	if err != nil {
		return err
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(m.rootdir, outPath)
	}
	m.assert.NoError(os.MkdirAll(filepath.Dir(outPath), 0o755))
	return os.WriteFile(outPath, []byte(output), 0o644)
}

func (m *Mock) RootDir() string {
	return m.rootdir
}

func (m *Mock) next(cmd git.Command) (string, error) {
	actual := cmd.String()
	fmt.Printf("CMD: %s\n", actual)
	m.assert.NotEmpty(m.expected, "unexpected command: %s", actual)

	expected := m.expected[0]
	m.assert.Equal(expected.cmd, actual)
	if expected.stdin != nil {
		m.assert.Equal(expected.stdin, stdinOf(cmd), "stdin of %s", actual)
	}
	m.expected = m.expected[1:]
	m.executed = append(m.executed, actual)
	return expected.output, expected.err
}

// Expect queues the next expected command text.
func (m *Mock) Expect(cmd string, args ...interface{}) *Mock {
	m.expected = append(m.expected, expectation{cmd: fmt.Sprintf(cmd, args...)})
	return m
}

// ExpectCommand queues an already built command. Its text and the stdin
// of every step must match.
func (m *Mock) ExpectCommand(cmd git.Command) *Mock {
	m.expected = append(m.expected, expectation{cmd: cmd.String(), stdin: stdinOf(cmd)})
	return m
}

func stdinOf(cmd git.Command) []string {
	stdin := make([]string, 0, len(cmd.Steps))
	for _, step := range cmd.Steps {
		stdin = append(stdin, step.Stdin)
	}
	return stdin
}

// Respond sets the stdout of the last queued command.
func (m *Mock) Respond(output string) *Mock {
	m.expected[len(m.expected)-1].output = output
	return m
}

// Fail makes the last queued command return err.
func (m *Mock) Fail(err error) *Mock {
	m.expected[len(m.expected)-1].err = err
	return m
}

func (m *Mock) ExpectSwitch(branch string) *Mock {
	return m.Expect("git switch %s", branch)
}

func (m *Mock) ExpectMergeBase(target string, source string, hash string) *Mock {
	return m.Expect("git merge-base %s %s", target, source).Respond(hash)
}

func (m *Mock) ExpectRevParse(ref string, hash string) *Mock {
	return m.Expect("git rev-parse %s", ref).Respond(hash)
}

func (m *Mock) ExpectBranchList(output string) *Mock {
	return m.Expect("git branch --no-color").Respond(output)
}

// Executed returns the text of every command run so far, in order.
func (m *Mock) Executed() []string {
	return append([]string(nil), m.executed...)
}

func (m *Mock) ExpectationsMet() {
	remaining := make([]string, 0, len(m.expected))
	for _, e := range m.expected {
		remaining = append(remaining, e.cmd)
	}
	m.assert.Empty(remaining, "expected commands were not executed")
}

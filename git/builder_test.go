package git

import (
	"errors"
	"testing"
	"time"

	"github.com/ejoffe/gitun/config"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Repo.RemoteURL = "https://github.com/r2/d2.git"
	return cfg
}

func testBuilder() *Builder {
	stamp := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return NewBuilder(testConfig()).WithClock(func() time.Time { return stamp })
}

func TestBuilderCommands(t *testing.T) {
	assert := require.New(t)
	b := testBuilder()

	tests := []struct {
		build  func() (Command, error)
		intent Intent
		text   string
	}{
		{b.Init, IntentInit, "git init --initial-branch=master"},
		{func() (Command, error) { return b.Touch("", ".gitignore") }, IntentTouch, "touch -- .gitignore"},
		{func() (Command, error) { return b.Touch("Assets", "a.txt") }, IntentTouch, "touch -- Assets/a.txt"},
		{func() (Command, error) { return b.Mkdir("Assets/DiffPrefabs") }, IntentMkdir, "mkdir -p -- Assets/DiffPrefabs"},
		{func() (Command, error) { return b.CreateBranch("locking") }, IntentCreateBranch, "git branch locking"},
		{func() (Command, error) { return b.Switch("feature/level-2") }, IntentSwitch, "git switch feature/level-2"},
		{b.AddRemote, IntentAddRemote, "git remote add origin https://github.com/r2/d2.git"},
		{b.PushAllBranches, IntentPushAll, "git push --all -u origin"},
		{func() (Command, error) { return b.Push("locking") }, IntentPush, "git push origin locking"},
		{func() (Command, error) { return b.Pull("locking") }, IntentPull, "git pull --ff-only origin locking"},
		{func() (Command, error) { return b.MergeBase("master", "feature") }, IntentMergeBase, "git merge-base master feature"},
		{func() (Command, error) { return b.RevParse("feature") }, IntentRevParse, "git rev-parse feature"},
		{func() (Command, error) { return b.MergeOurs("feature") }, IntentMergeOurs, "git merge -Xours feature --no-edit"},
		{func() (Command, error) { return b.SubtreeSplitNewBranch("Assets/Scenes", "scenes") }, IntentSubtreeSplit,
			"git subtree split --prefix Assets/Scenes -b scenes"},
		{func() (Command, error) { return b.Show("locking", "locks.yml") }, IntentShow, "git show locking:locks.yml"},
		{func() (Command, error) { return b.BranchList(), nil }, IntentBranchList, "git branch --no-color"},
		{func() (Command, error) { return b.UserName(), nil }, IntentUserName, "git config user.name"},
		{func() (Command, error) { return b.RemoteList(), nil }, IntentRemoteList, "git remote -v"},
		{b.RemoteHead, IntentRemoteHead, "git symbolic-ref --short refs/remotes/origin/HEAD"},
		{func() (Command, error) { return b.StagedFiles(), nil }, IntentStagedFiles, "git diff --cached --name-only"},
	}
	for _, tc := range tests {
		cmd, err := tc.build()
		assert.NoError(err, tc.text)
		assert.Equal(tc.intent, cmd.Intent)
		assert.Equal(tc.text, cmd.String())
	}
}

func TestBuilderCommit(t *testing.T) {
	assert := require.New(t)
	cmd, err := testBuilder().Commit(".gitignore")
	assert.NoError(err)
	assert.Equal(IntentCommit, cmd.Intent)
	assert.Len(cmd.Steps, 3)
	assert.True(cmd.Steps[1].StopOnSuccess)
	assert.Equal([]string{"commit", "-m", "added .gitignore on 2024-03-01 09:30:00"}, cmd.Steps[2].Args)
	assert.Equal("git add -- .gitignore && git diff --cached --quiet || "+
		"git commit -m 'added .gitignore on 2024-03-01 09:30:00'", cmd.String())
}

func TestBuilderDiff(t *testing.T) {
	assert := require.New(t)
	b := testBuilder()

	mergeBase := "1111111111aa2222222222bb3333333333cc4444"
	head := "5555555555dd6666666666ee7777777777ff8888"
	cmd, err := b.Diff(mergeBase, head)
	assert.NoError(err)
	assert.Equal("git diff 1111111111aa 5555555555dd -- Assets/Scenes", cmd.String())
	for _, arg := range cmd.Steps[0].Args {
		assert.NotEqual(mergeBase, arg)
		assert.NotEqual(head, arg)
	}

	_, err = b.Diff("deadbeef", head)
	assert.ErrorIs(err, ErrUnexpectedOutputShape)
	_, err = b.Diff(mergeBase, "")
	assert.ErrorIs(err, ErrUnexpectedOutputShape)

	cfg := testConfig()
	cfg.Repo.AssetDir = ""
	_, err = NewBuilder(cfg).Diff(mergeBase, head)
	assert.ErrorIs(err, ErrInvalidArgument)
}

func TestBuilderWriteLines(t *testing.T) {
	assert := require.New(t)
	b := testBuilder()

	cmd, err := b.WriteLines([]string{"*.log", "it's $(rm -rf /)"}, ".gitignore")
	assert.NoError(err)
	step := cmd.Steps[0]
	assert.Equal("sh", step.Program)
	assert.Equal([]string{".gitignore", "*.log", "it's $(rm -rf /)"}, step.Args[3:])
	assert.Equal(writeLinesScript, step.Args[1])

	_, err = b.WriteLines(nil, ".gitignore")
	assert.ErrorIs(err, ErrInvalidArgument)
	_, err = b.WriteLines([]string{"a", ""}, ".gitignore")
	assert.ErrorIs(err, ErrInvalidArgument)
	_, err = b.WriteLines([]string{"a\nb"}, ".gitignore")
	assert.ErrorIs(err, ErrInvalidArgument)
	_, err = b.WriteLines([]string{"a"}, "")
	assert.ErrorIs(err, ErrInvalidArgument)
}

func TestBuilderOverrideFileContent(t *testing.T) {
	assert := require.New(t)
	cmd, err := testBuilder().OverrideFileContent("*\n!locks.yml\n", ".gitignore")
	assert.NoError(err)
	assert.Equal([]string{"-c", overrideFileScript, "gitun", ".gitignore"}, cmd.Steps[0].Args)
	assert.Equal("*\n!locks.yml\n", cmd.Steps[0].Stdin)
	assert.NotContains(cmd.String(), "locks.yml")

	_, err = testBuilder().OverrideFileContent("", ".gitignore")
	assert.ErrorIs(err, ErrInvalidArgument)
}

func TestBuilderInvalidArguments(t *testing.T) {
	b := testBuilder()
	tests := []struct {
		name  string
		build func() (Command, error)
	}{
		{"empty branch", func() (Command, error) { return b.CreateBranch("") }},
		{"flag branch", func() (Command, error) { return b.Switch("--orphan") }},
		{"space branch", func() (Command, error) { return b.Switch("my branch") }},
		{"control char", func() (Command, error) { return b.MergeOurs("a\x00b") }},
		{"empty merge base source", func() (Command, error) { return b.MergeBase("master", "") }},
		{"empty touch", func() (Command, error) { return b.Touch("Assets", "") }},
		{"empty mkdir", func() (Command, error) { return b.Mkdir(" ") }},
		{"empty commit", func() (Command, error) { return b.Commit("") }},
		{"empty show path", func() (Command, error) { return b.Show("locking", "") }},
		{"empty prefix", func() (Command, error) { return b.SubtreeSplitNewBranch("", "x") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build()
			require.ErrorIs(t, err, ErrInvalidArgument)
			var argErr *ArgumentError
			require.True(t, errors.As(err, &argErr))
		})
	}

	cfg := testConfig()
	cfg.Repo.RemoteURL = ""
	_, err := NewBuilder(cfg).AddRemote()
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCommandError(t *testing.T) {
	assert := require.New(t)

	err := error(NewCommandError("git branch locking", "", "fatal: a branch named 'locking' already exists", errors.New("exit status 128")))
	assert.ErrorIs(err, ErrProcessExecution)
	assert.ErrorIs(err, ErrRepositoryStateConflict)

	err = NewCommandError("git push origin locking", "", "fatal: unable to access remote", errors.New("exit status 128"))
	assert.ErrorIs(err, ErrProcessExecution)
	assert.NotErrorIs(err, ErrRepositoryStateConflict)
	assert.Contains(err.Error(), "stderr: fatal: unable to access remote")
}

func TestIntentString(t *testing.T) {
	require.Equal(t, "merge-ours", IntentMergeOurs.String())
	require.Equal(t, "unknown", Intent(-1).String())
}

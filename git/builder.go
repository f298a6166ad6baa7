package git

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/ejoffe/gitun/config"
)

// writeLinesScript appends every line given after the target file unless the
// file already holds that exact line. The data only ever arrives through
// positional parameters.
const writeLinesScript = `f=$1; shift
if [ -s "$f" ] && [ -n "$(tail -c 1 "$f")" ]; then printf '\n' >> "$f"; fi
for l in "$@"; do
  grep -qxF -e "$l" "$f" 2>/dev/null || printf '%s\n' "$l" >> "$f"
done`

// overrideFileScript replaces the target file with whatever arrives on stdin.
const overrideFileScript = `cat > "$1"`

// Builder maps workflow intents to commands. It does no I/O.
type Builder struct {
	config *config.Config
	now    func() time.Time
}

// NewBuilder returns a builder for the given config.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		config: cfg,
		now:    time.Now,
	}
}

// WithClock returns a copy of the builder that stamps commit messages with now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	return &Builder{
		config: b.config,
		now:    now,
	}
}

// Init creates the repository with the primary branch checked out, whatever
// init.defaultBranch says.
func (b *Builder) Init() (Command, error) {
	if err := refArgument(IntentInit, "primaryBranch", b.config.Repo.PrimaryBranch); err != nil {
		return Command{}, err
	}
	return newCommand(IntentInit, gitStep("init", "--initial-branch="+b.config.Repo.PrimaryBranch)), nil
}

func (b *Builder) Touch(dir string, filename string) (Command, error) {
	if err := required(IntentTouch, "filename", filename); err != nil {
		return Command{}, err
	}
	return newCommand(IntentTouch, Step{
		Program: "touch",
		Args:    []string{"--", filepath.Join(dir, filename)},
	}), nil
}

func (b *Builder) Mkdir(path string) (Command, error) {
	if err := required(IntentMkdir, "path", path); err != nil {
		return Command{}, err
	}
	return newCommand(IntentMkdir, Step{
		Program: "mkdir",
		Args:    []string{"-p", "--", path},
	}), nil
}

// WriteLines appends lines to targetFile in order, skipping lines the file
// already contains.
func (b *Builder) WriteLines(lines []string, targetFile string) (Command, error) {
	if err := required(IntentWriteLines, "targetFile", targetFile); err != nil {
		return Command{}, err
	}
	if len(lines) == 0 {
		return Command{}, &ArgumentError{Intent: IntentWriteLines, Name: "lines", Reason: "is empty"}
	}
	args := []string{"-c", writeLinesScript, "gitun", targetFile}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			return Command{}, &ArgumentError{Intent: IntentWriteLines, Name: fmt.Sprintf("lines[%d]", i), Reason: "is empty"}
		}
		if strings.ContainsAny(line, "\r\n") {
			return Command{}, &ArgumentError{Intent: IntentWriteLines, Name: fmt.Sprintf("lines[%d]", i), Reason: "contains a line break"}
		}
		args = append(args, line)
	}
	return newCommand(IntentWriteLines, Step{Program: "sh", Args: args}), nil
}

// OverrideFileContent replaces the content of targetFile with newContent.
func (b *Builder) OverrideFileContent(newContent string, targetFile string) (Command, error) {
	if err := required(IntentOverrideFileContent, "targetFile", targetFile); err != nil {
		return Command{}, err
	}
	if err := required(IntentOverrideFileContent, "newContent", newContent); err != nil {
		return Command{}, err
	}
	return newCommand(IntentOverrideFileContent, Step{
		Program: "sh",
		Args:    []string{"-c", overrideFileScript, "gitun", targetFile},
		Stdin:   newContent,
	}), nil
}

// Commit stages contentPath and commits it. When nothing is staged the
// commit step is skipped so committing a clean tree is a no-op.
func (b *Builder) Commit(contentPath string) (Command, error) {
	if err := required(IntentCommit, "contentPath", contentPath); err != nil {
		return Command{}, err
	}
	message := fmt.Sprintf("added %s on %s", contentPath, b.now().Format("2006-01-02 15:04:05"))
	return newCommand(IntentCommit,
		gitStep("add", "--", contentPath),
		Step{Program: "git", Args: []string{"diff", "--cached", "--quiet"}, StopOnSuccess: true},
		gitStep("commit", "-m", message),
	), nil
}

func (b *Builder) CreateBranch(name string) (Command, error) {
	if err := refArgument(IntentCreateBranch, "name", name); err != nil {
		return Command{}, err
	}
	return newCommand(IntentCreateBranch, gitStep("branch", name)), nil
}

func (b *Builder) Switch(name string) (Command, error) {
	if err := refArgument(IntentSwitch, "name", name); err != nil {
		return Command{}, err
	}
	return newCommand(IntentSwitch, gitStep("switch", name)), nil
}

// AddRemote registers the configured remote.
func (b *Builder) AddRemote() (Command, error) {
	if err := refArgument(IntentAddRemote, "remoteName", b.config.Repo.RemoteName); err != nil {
		return Command{}, err
	}
	if err := required(IntentAddRemote, "remoteURL", b.config.Repo.RemoteURL); err != nil {
		return Command{}, err
	}
	return newCommand(IntentAddRemote,
		gitStep("remote", "add", b.config.Repo.RemoteName, b.config.Repo.RemoteURL)), nil
}

func (b *Builder) PushAllBranches() (Command, error) {
	if err := refArgument(IntentPushAll, "remoteName", b.config.Repo.RemoteName); err != nil {
		return Command{}, err
	}
	return newCommand(IntentPushAll, gitStep("push", "--all", "-u", b.config.Repo.RemoteName)), nil
}

func (b *Builder) Push(branch string) (Command, error) {
	if err := refArgument(IntentPush, "remoteName", b.config.Repo.RemoteName); err != nil {
		return Command{}, err
	}
	if err := refArgument(IntentPush, "branch", branch); err != nil {
		return Command{}, err
	}
	return newCommand(IntentPush, gitStep("push", b.config.Repo.RemoteName, branch)), nil
}

// Pull fast-forwards branch from the configured remote.
func (b *Builder) Pull(branch string) (Command, error) {
	if err := refArgument(IntentPull, "remoteName", b.config.Repo.RemoteName); err != nil {
		return Command{}, err
	}
	if err := refArgument(IntentPull, "branch", branch); err != nil {
		return Command{}, err
	}
	return newCommand(IntentPull, gitStep("pull", "--ff-only", b.config.Repo.RemoteName, branch)), nil
}

// MergeBase builds a command whose output is the hash of the common ancestor.
func (b *Builder) MergeBase(target string, source string) (Command, error) {
	if err := refArgument(IntentMergeBase, "target", target); err != nil {
		return Command{}, err
	}
	if err := refArgument(IntentMergeBase, "source", source); err != nil {
		return Command{}, err
	}
	return newCommand(IntentMergeBase, gitStep("merge-base", target, source)), nil
}

// RevParse builds a command whose output is the hash ref points at.
func (b *Builder) RevParse(ref string) (Command, error) {
	if err := refArgument(IntentRevParse, "ref", ref); err != nil {
		return Command{}, err
	}
	return newCommand(IntentRevParse, gitStep("rev-parse", ref)), nil
}

// Diff builds a diff between two hashes restricted to the asset directory.
// Both hashes are shortened with TruncateHash first, full hashes are
// never embedded.
func (b *Builder) Diff(mergeBaseHash string, revParseHash string) (Command, error) {
	if err := required(IntentDiff, "assetDir", b.config.Repo.AssetDir); err != nil {
		return Command{}, err
	}
	mergeBase, err := TruncateHash(mergeBaseHash)
	if err != nil {
		return Command{}, err
	}
	revParse, err := TruncateHash(revParseHash)
	if err != nil {
		return Command{}, err
	}
	return newCommand(IntentDiff,
		gitStep("diff", mergeBase, revParse, "--", b.config.Repo.AssetDir)), nil
}

// MergeOurs merges sourceBranch preferring the current branch on conflicts,
// with the default merge message.
func (b *Builder) MergeOurs(sourceBranch string) (Command, error) {
	if err := refArgument(IntentMergeOurs, "sourceBranch", sourceBranch); err != nil {
		return Command{}, err
	}
	return newCommand(IntentMergeOurs, gitStep("merge", "-Xours", sourceBranch, "--no-edit")), nil
}

// SubtreeSplitNewBranch splits the history of prefix into newBranchName.
func (b *Builder) SubtreeSplitNewBranch(prefix string, newBranchName string) (Command, error) {
	if err := required(IntentSubtreeSplit, "prefix", prefix); err != nil {
		return Command{}, err
	}
	if err := refArgument(IntentSubtreeSplit, "newBranchName", newBranchName); err != nil {
		return Command{}, err
	}
	return newCommand(IntentSubtreeSplit,
		gitStep("subtree", "split", "--prefix", prefix, "-b", newBranchName)), nil
}

func (b *Builder) BranchList() Command {
	return newCommand(IntentBranchList, gitStep("branch", "--no-color"))
}

// Show prints the content of path as of ref.
func (b *Builder) Show(ref string, path string) (Command, error) {
	if err := refArgument(IntentShow, "ref", ref); err != nil {
		return Command{}, err
	}
	if err := required(IntentShow, "path", path); err != nil {
		return Command{}, err
	}
	return newCommand(IntentShow, gitStep("show", ref+":"+filepath.ToSlash(path))), nil
}

func (b *Builder) UserName() Command {
	return newCommand(IntentUserName, gitStep("config", "user.name"))
}

// RemoteList lists the configured remotes with their fetch and push urls.
func (b *Builder) RemoteList() Command {
	return newCommand(IntentRemoteList, gitStep("remote", "-v"))
}

// RemoteHead prints the default branch of the configured remote, as
// <remote>/<branch>.
func (b *Builder) RemoteHead() (Command, error) {
	if err := refArgument(IntentRemoteHead, "remoteName", b.config.Repo.RemoteName); err != nil {
		return Command{}, err
	}
	return newCommand(IntentRemoteHead,
		gitStep("symbolic-ref", "--short", "refs/remotes/"+b.config.Repo.RemoteName+"/HEAD")), nil
}

// StagedFiles lists the paths staged for the next commit.
func (b *Builder) StagedFiles() Command {
	return newCommand(IntentStagedFiles, gitStep("diff", "--cached", "--name-only"))
}

func required(intent Intent, name string, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ArgumentError{Intent: intent, Name: name, Reason: "is empty"}
	}
	return nil
}

// refArgument validates branch names, remote names and refs. They can't be
// empty, can't be mistaken for a flag and can't hold whitespace.
func refArgument(intent Intent, name string, value string) error {
	if err := required(intent, name, value); err != nil {
		return err
	}
	if strings.HasPrefix(value, "-") {
		return &ArgumentError{Intent: intent, Name: name, Reason: "starts with '-'"}
	}
	for _, r := range value {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return &ArgumentError{Intent: intent, Name: name, Reason: "contains whitespace or control characters"}
		}
	}
	return nil
}

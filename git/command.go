package git

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// Intent names the workflow operation a Command was built for.
type Intent int

const (
	IntentInit Intent = iota
	IntentTouch
	IntentMkdir
	IntentWriteLines
	IntentOverrideFileContent
	IntentCommit
	IntentCreateBranch
	IntentSwitch
	IntentAddRemote
	IntentPushAll
	IntentPush
	IntentPull
	IntentMergeBase
	IntentRevParse
	IntentDiff
	IntentMergeOurs
	IntentSubtreeSplit
	IntentBranchList
	IntentShow
	IntentUserName
	IntentRemoteList
	IntentRemoteHead
	IntentStagedFiles
)

var intentNames = map[Intent]string{
	IntentInit:                "init",
	IntentTouch:               "touch",
	IntentMkdir:               "mkdir",
	IntentWriteLines:          "write-lines",
	IntentOverrideFileContent: "override-file-content",
	IntentCommit:              "commit",
	IntentCreateBranch:        "create-branch",
	IntentSwitch:              "switch",
	IntentAddRemote:           "add-remote",
	IntentPushAll:             "push-all",
	IntentPush:                "push",
	IntentPull:                "pull",
	IntentMergeBase:           "merge-base",
	IntentRevParse:            "rev-parse",
	IntentDiff:                "diff",
	IntentMergeOurs:           "merge-ours",
	IntentSubtreeSplit:        "subtree-split",
	IntentBranchList:          "branch-list",
	IntentShow:                "show",
	IntentUserName:            "user-name",
	IntentRemoteList:          "remote-list",
	IntentRemoteHead:          "remote-head",
	IntentStagedFiles:         "staged-files",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "unknown"
}

// Step is a single process invocation. Args are passed to the process as is,
// they are never interpreted by a shell.
type Step struct {
	Program string
	Args    []string

	// Stdin is fed to the process verbatim. It is left out of String.
	Stdin string

	// StopOnSuccess marks a guard step. When the guard exits zero the command
	// is finished and the remaining steps are skipped. A non-zero exit of a
	// guard is not an error.
	StopOnSuccess bool
}

// String returns the step quoted the way a shell would need it.
func (s Step) String() string {
	return shellquote.Join(append([]string{s.Program}, s.Args...)...)
}

// Command is an immutable, fully built workflow command.
type Command struct {
	Intent Intent
	Steps  []Step
}

// String renders the command for logs and audit records.
// Guard steps are rendered with || so the text reads like the equivalent
// shell one liner.
func (c Command) String() string {
	var b strings.Builder
	for i, step := range c.Steps {
		if i > 0 {
			if c.Steps[i-1].StopOnSuccess {
				b.WriteString(" || ")
			} else {
				b.WriteString(" && ")
			}
		}
		b.WriteString(step.String())
	}
	return b.String()
}

func newCommand(intent Intent, steps ...Step) Command {
	return Command{Intent: intent, Steps: steps}
}

func gitStep(args ...string) Step {
	return Step{Program: "git", Args: args}
}

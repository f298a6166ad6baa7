package git

import (
	"context"
	"strings"
)

const (
	// HashRemovalOffset is the number of trailing characters cut from a hash
	// before it is embedded in a diff command. A 40 character sha1 becomes
	// a 12 character prefix.
	HashRemovalOffset = 28

	// MaxHashPrefix is the longest prefix ever embedded in a diff command.
	MaxHashPrefix = 12
)

// TruncateHash shortens a full commit hash to the prefix used by Diff.
// The hash must be hex and at least HashRemovalOffset+1 characters long,
// anything else is reported as ErrUnexpectedOutputShape.
//
// The prefix is len(hash)-HashRemovalOffset characters long but never more
// than MaxHashPrefix, so a 64 character sha256 hash also yields 12
// characters rather than 36.
func TruncateHash(hash string) (string, error) {
	hash = strings.TrimSpace(hash)
	if len(hash) <= HashRemovalOffset {
		return "", &OutputShapeError{Output: hash, Reason: "hash is too short to truncate"}
	}
	for _, r := range hash {
		if !isHex(r) {
			return "", &OutputShapeError{Output: hash, Reason: "hash is not hexadecimal"}
		}
	}
	prefix := hash[:len(hash)-HashRemovalOffset]
	if len(prefix) > MaxHashPrefix {
		prefix = prefix[:MaxHashPrefix]
	}
	return prefix, nil
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// ParseBranchList parses the output of 'git branch --no-color'.
// The current branch comes back without its '* ' marker, detached HEAD
// entries are dropped.
func ParseBranchList(lines []string) []string {
	branches := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		name := strings.TrimSpace(strings.TrimPrefix(line, "* "))
		if name == "" || strings.HasPrefix(name, "(") {
			continue
		}
		branches = append(branches, name)
	}
	return branches
}

// GetLocalBranchName returns the current local git branch
func GetLocalBranchName(ctx context.Context, executor Executor, builder *Builder) (string, error) {
	lines, err := executor.ExecuteCapturingLines(ctx, builder.BranchList())
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "* ") {
			name := strings.TrimSpace(line[2:])
			if strings.HasPrefix(name, "(") {
				break
			}
			return name, nil
		}
	}
	return "", &OutputShapeError{Output: strings.Join(lines, "\n"), Reason: "cannot determine local git branch name"}
}

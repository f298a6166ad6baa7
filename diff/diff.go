package diff

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Status of a changed object between the merge base and the source branch.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
	StatusRenamed  Status = "renamed"
)

// ChangedObject is an asset touched on the source branch since the merge base.
type ChangedObject struct {
	Path    string `json:"path"`
	OldPath string `json:"oldPath,omitempty"`
	Status  Status `json:"status"`
	Binary  bool   `json:"binary,omitempty"`

	Additions int `json:"additions"`
	Deletions int `json:"deletions"`

	// Ref is the commit-ish the object content is read from.
	Ref string `json:"ref,omitempty"`
}

// ArtifactExtractor reads the changed objects out of a diff artifact file.
type ArtifactExtractor struct {
	path string
}

// NewArtifactExtractor returns an extractor for the diff artifact at path.
func NewArtifactExtractor(path string) *ArtifactExtractor {
	return &ArtifactExtractor{path: path}
}

func (e *ArtifactExtractor) GetDiffObjects(ctx context.Context) ([]ChangedObject, error) {
	artifact, err := os.Open(filepath.Clean(e.path))
	if err != nil {
		return nil, fmt.Errorf("open diff artifact: %w", err)
	}
	defer artifact.Close()
	return Parse(artifact)
}

// Parse reads a unified diff as written by 'git diff' and returns one object
// per file section, in the order they appear.
func Parse(r io.Reader) ([]ChangedObject, error) {
	var objects []ChangedObject
	var current *ChangedObject
	inHunk := false

	flush := func() {
		if current != nil {
			objects = append(objects, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git ") {
			flush()
			path, err := headerPath(strings.TrimPrefix(line, "diff --git "))
			if err != nil {
				return nil, err
			}
			current = &ChangedObject{Path: path, Status: StatusModified}
			inHunk = false
			continue
		}
		if current == nil {
			continue
		}

		if inHunk {
			switch {
			case strings.HasPrefix(line, "@@"):
			case strings.HasPrefix(line, "+"):
				current.Additions++
			case strings.HasPrefix(line, "-"):
				current.Deletions++
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
		case strings.HasPrefix(line, "new file mode"):
			current.Status = StatusAdded
		case strings.HasPrefix(line, "deleted file mode"):
			current.Status = StatusDeleted
		case strings.HasPrefix(line, "rename from "):
			current.Status = StatusRenamed
			current.OldPath = unquote(strings.TrimPrefix(line, "rename from "))
		case strings.HasPrefix(line, "rename to "):
			current.Status = StatusRenamed
			current.Path = unquote(strings.TrimPrefix(line, "rename to "))
		case strings.HasPrefix(line, "Binary files "):
			current.Binary = true
		case strings.HasPrefix(line, "+++ "):
			if name := strings.TrimPrefix(line, "+++ "); name != "/dev/null" {
				current.Path = strings.TrimPrefix(unquote(name), "b/")
			}
		case strings.HasPrefix(line, "--- "):
			if name := strings.TrimPrefix(line, "--- "); name != "/dev/null" && current.Status == StatusDeleted {
				current.Path = strings.TrimPrefix(unquote(name), "a/")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read diff artifact: %w", err)
	}
	flush()
	return objects, nil
}

// headerPath takes the 'a/x b/x' part of a diff header and returns x.
func headerPath(header string) (string, error) {
	if strings.HasPrefix(header, `"`) {
		// quoted paths: "a/x y" "b/x y"
		end := strings.Index(header[1:], `" `)
		if end < 0 {
			return "", fmt.Errorf("malformed diff header %q", header)
		}
		return strings.TrimPrefix(unquote(strings.TrimSpace(header[end+3:])), "b/"), nil
	}
	idx := strings.LastIndex(header, " b/")
	if idx < 0 {
		return "", fmt.Errorf("malformed diff header %q", header)
	}
	return header[idx+3:], nil
}

func unquote(s string) string {
	s = strings.TrimRight(s, "\t")
	if strings.HasPrefix(s, `"`) {
		if unquoted, err := strconv.Unquote(s); err == nil {
			return unquoted
		}
	}
	return s
}

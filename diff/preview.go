package diff

import (
	"fmt"
	"path"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// Preview lists the objects below assetDir that changed on source since
// its merge base with target. It reads the repository directly and runs
// no commands, so it's safe to call while nothing may be modified.
func Preview(repoPath string, target string, source string, assetDir string) ([]ChangedObject, error) {
	repo, err := gogit.PlainOpenWithOptions(repoPath, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	targetCommit, err := resolveCommit(repo, target)
	if err != nil {
		return nil, err
	}
	sourceCommit, err := resolveCommit(repo, source)
	if err != nil {
		return nil, err
	}

	bases, err := targetCommit.MergeBase(sourceCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base: %w", err)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("no merge base found for %s and %s", target, source)
	}

	baseTree, err := bases[0].Tree()
	if err != nil {
		return nil, err
	}
	sourceTree, err := sourceCommit.Tree()
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTree(baseTree, sourceTree)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	dir := strings.TrimSuffix(path.Clean(assetDir), "/") + "/"
	var objects []ChangedObject
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, err
		}
		obj := ChangedObject{Path: change.To.Name, Ref: source}
		switch action {
		case merkletrie.Insert:
			obj.Status = StatusAdded
		case merkletrie.Delete:
			obj.Status = StatusDeleted
			obj.Path = change.From.Name
		default:
			obj.Status = StatusModified
		}
		if !strings.HasPrefix(obj.Path, dir) {
			continue
		}

		patch, err := change.Patch()
		if err != nil {
			return nil, err
		}
		for _, stat := range patch.Stats() {
			obj.Additions += stat.Addition
			obj.Deletions += stat.Deletion
		}
		for _, filePatch := range patch.FilePatches() {
			if filePatch.IsBinary() {
				obj.Binary = true
			}
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func resolveCommit(repo *gogit.Repository, ref string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", ref, err)
	}
	return commit, nil
}

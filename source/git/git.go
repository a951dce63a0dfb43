// Copyright 2025 The Witness Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package git produces unified diff text from a local git repository.
package git

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/in-toto/go-patchscan/log"
)

// Patch returns the diff between the trees of revisions from and to in the
// repository containing repoDir. When from is empty the diff is taken
// against the first parent of to, or against an empty tree for a root
// commit. An empty to means HEAD.
func Patch(ctx context.Context, repoDir, from, to string) (string, error) {
	repo, err := git.PlainOpenWithOptions(repoDir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", fmt.Errorf("could not open git repository at %s: %w", repoDir, err)
	}

	if to == "" {
		to = "HEAD"
	}

	toCommit, err := resolveCommit(repo, to)
	if err != nil {
		return "", err
	}

	toTree, err := toCommit.Tree()
	if err != nil {
		return "", fmt.Errorf("could not get tree for commit %s: %w", toCommit.Hash, err)
	}

	fromTree, err := baseTree(repo, toCommit, from)
	if err != nil {
		return "", err
	}

	log.Debugf("(source/git) diffing %s..%s in %s", from, toCommit.Hash, repoDir)
	patch, err := fromTree.PatchContext(ctx, toTree)
	if err != nil {
		return "", fmt.Errorf("could not get patch for %s..%s: %w", from, to, err)
	}

	return patch.String(), nil
}

func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("could not resolve revision %s: %w", rev, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("could not find commit: %s", hash.String())
	}

	return commit, nil
}

func baseTree(repo *git.Repository, to *object.Commit, from string) (*object.Tree, error) {
	if from != "" {
		fromCommit, err := resolveCommit(repo, from)
		if err != nil {
			return nil, err
		}

		tree, err := fromCommit.Tree()
		if err != nil {
			return nil, fmt.Errorf("could not get tree for commit %s: %w", fromCommit.Hash, err)
		}

		return tree, nil
	}

	if len(to.ParentHashes) == 0 {
		// root commit, everything is added
		return &object.Tree{}, nil
	}

	parent, err := to.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("could not find parent commit of %s: %w", to.Hash, err)
	}

	tree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("could not get tree for parent commit: %s", parent.Hash.String())
	}

	return tree, nil
}

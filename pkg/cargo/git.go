package cargo

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// RemoteHead asks the remote which commit the installed branch (or tag,
// or HEAD) points at, without cloning
func RemoteHead(ctx context.Context, src *Source) (string, error) {
	rem := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{src.URL},
	})

	refs, err := rem.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", src.URL, err)
	}

	want := plumbing.HEAD
	switch {
	case src.Branch != "":
		want = plumbing.NewBranchReferenceName(src.Branch)
	case src.Tag != "":
		want = plumbing.NewTagReferenceName(src.Tag)
	}

	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, r := range refs {
		byName[r.Name()] = r
	}

	// Annotated tags advertise the peeled commit separately
	ref, ok := byName[plumbing.ReferenceName(want.String()+"^{}")]
	if !ok {
		ref, ok = byName[want]
	}
	for i := 0; ok && ref.Type() == plumbing.SymbolicReference && i < 5; i++ {
		ref, ok = byName[ref.Target()]
	}
	if !ok {
		return "", fmt.Errorf("%s: no %s", src.URL, want)
	}
	return ref.Hash().String(), nil
}

// sameCommit compares a possibly abbreviated installed revision with a
// full hash
func sameCommit(installed, head string) bool {
	if installed == "" || head == "" {
		return false
	}
	return strings.HasPrefix(head, installed) || strings.HasPrefix(installed, head)
}

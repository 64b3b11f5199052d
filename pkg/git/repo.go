package git

import (
	"context"
	"os"
	"path/filepath"

	gitm "github.com/aymanbagabas/git-module"
)

// Repository is a wrapper around git-module's Repository with the repository
// path attached.
type Repository struct {
	*gitm.Repository
	Path string
}

// Open opens the git repository at the given path.
func Open(path string) (*Repository, error) {
	repo, err := gitm.Open(path)
	if err != nil {
		return nil, ErrInvalidRepo
	}
	return &Repository{
		Repository: repo,
		Path:       path,
	}, nil
}

// Init initializes a new bare repository at the given path.
func Init(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, err
	}
	if err := gitm.Init(path, gitm.InitOptions{Bare: true}); err != nil {
		return nil, err
	}
	return Open(path)
}

// Exists reports whether path contains a repository.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDefaultBranch points HEAD at an existing branch, preferring "main"
// or "master". Pushes into an empty repository otherwise leave HEAD dangling.
func EnsureDefaultBranch(ctx context.Context, repoPath string) error {
	r, err := Open(repoPath)
	if err != nil {
		return err
	}
	brs, err := r.Branches()
	if err != nil {
		return err
	}
	if len(brs) == 0 {
		return nil
	}

	head, err := r.SymbolicRef(gitm.SymbolicRefOptions{
		CommandOptions: gitm.CommandOptions{Context: ctx},
	})
	if err == nil && r.HasReference(head) {
		return nil
	}

	branch := brs[0]
	for _, b := range brs {
		if b == "main" || b == "master" {
			branch = b
			break
		}
	}
	_, err = r.SymbolicRef(gitm.SymbolicRefOptions{
		Ref:            gitm.RefsHeads + branch,
		CommandOptions: gitm.CommandOptions{Context: ctx},
	})
	return err
}

// UpdateServerInfo refreshes the auxiliary files consumed by dumb HTTP
// clients.
func UpdateServerInfo(ctx context.Context, path string) error {
	cmd := gitm.NewCommand("update-server-info").WithContext(ctx).WithTimeout(-1)
	_, err := cmd.RunInDir(path)
	return err
}

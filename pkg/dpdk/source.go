package dpdk

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
)

const (
	DefaultRepository  = "https://github.com/DPDK/dpdk.git"
	DefaultSourceDir   = "/tmp/dpdk"
	DefaultDestDir     = "/usr/local/bin/dpdk"
	DefaultInterpreter = "/usr/bin/python3"

	usertoolsDir = "usertools"
	devbindName  = "dpdk-devbind.py"
)

// SourceInstaller fetches the DPDK tree and copies its usertools into DestDir.
type SourceInstaller struct {
	Repository  string
	SourceDir   string
	DestDir     string
	Interpreter string

	// fetch is replaced in tests.
	fetch func(ctx context.Context, repository, dir string) error
}

// NewSourceInstaller returns a SourceInstaller with the default locations.
func NewSourceInstaller() *SourceInstaller {
	return &SourceInstaller{
		Repository:  DefaultRepository,
		SourceDir:   DefaultSourceDir,
		DestDir:     DefaultDestDir,
		Interpreter: DefaultInterpreter,
	}
}

// Install fetches the tree and replaces DestDir/usertools with a fresh copy.
func (s *SourceInstaller) Install(ctx context.Context) (Tooling, error) {
	fetch := s.fetch
	if fetch == nil {
		fetch = fetchRepository
	}

	if err := fetch(ctx, s.Repository, s.SourceDir); err != nil {
		return Tooling{}, err
	}

	src := filepath.Join(s.SourceDir, usertoolsDir)
	dst := filepath.Join(s.DestDir, usertoolsDir)

	if err := os.RemoveAll(dst); err != nil {
		return Tooling{}, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to remove %s", dst), err)
	}
	if err := copyTree(src, dst); err != nil {
		return Tooling{}, cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to copy %s to %s", src, dst), err)
	}

	t := s.Expected()
	slog.Info("dpdk usertools installed", "source", s.SourceDir, "devbind", t.Devbind)
	return t, nil
}

// Expected returns the interpreter and the devbind path under DestDir.
func (s *SourceInstaller) Expected() Tooling {
	return Tooling{
		Interpreter: s.Interpreter,
		Devbind:     filepath.Join(s.DestDir, usertoolsDir, devbindName),
	}
}

// fetchRepository clones repository into dir, or pulls when dir already
// holds a clone. A failed pull keeps the existing tree.
func fetchRepository(ctx context.Context, repository, dir string) error {
	repo, err := git.PlainOpen(dir)
	switch {
	case err == nil:
		return pull(ctx, repo, dir)
	case stderrors.Is(err, git.ErrRepositoryNotExists):
		// clone below
	default:
		return cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to open %s", dir), err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to remove %s", dir), err)
	}

	slog.Info("cloning dpdk", "repository", repository, "dir", dir)
	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          repository,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeUnavailable, fmt.Sprintf("failed to clone %s", repository), err)
	}
	return nil
}

func pull(ctx context.Context, repo *git.Repository, dir string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeIO, fmt.Sprintf("failed to open worktree %s", dir), err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	switch {
	case err == nil:
		slog.Info("dpdk source updated", "dir", dir)
	case stderrors.Is(err, git.NoErrAlreadyUpToDate):
		slog.Debug("dpdk source already up to date", "dir", dir)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		slog.Warn("failed to update dpdk source, using existing tree", "dir", dir, "error", err)
	}
	return nil
}

// copyTree copies the regular files and directories under src into dst,
// keeping permission bits.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			slog.Debug("skipping non-regular file", "path", path)
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

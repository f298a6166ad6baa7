package hook

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	hookPath   = ".git/hooks/pre-commit"
	hookBinary = "gitun-lockcheck"
)

var lookPath = exec.LookPath

// ErrOtherHookInstalled is returned when the repository already has a
// pre-commit hook that isn't ours.
var ErrOtherHookInstalled = errors.New("different pre-commit hook already installed")

// InstallPreCommitHook links the lock check binary as the pre-commit hook of
// the repository at rootdir. Installing twice is fine.
func InstallPreCommitHook(rootdir string, out io.Writer) error {
	path := filepath.Join(rootdir, filepath.FromSlash(hookPath))

	info, err := os.Lstat(path)
	if err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			linkPath, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if strings.HasSuffix(linkPath, hookBinary) {
				return nil
			}
		}
		return ErrOtherHookInstalled
	}

	binPath, err := lookPath(hookBinary)
	if err != nil {
		return fmt.Errorf("%s must be installed: %w", hookBinary, err)
	}
	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return err
	}
	err = os.Symlink(binPath, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Installed pre-commit hook in %s\n", hookPath)
	return nil
}

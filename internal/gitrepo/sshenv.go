package gitrepo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/errors"
)

// normalizeSSHKey expands literal "\n" escapes (common when a key is
// pasted through a single-line config field), normalizes CRLF to LF,
// trims surrounding whitespace, and ensures a trailing newline. Grounded
// on the teacher's provider-side key normalization, generalized for the
// transport path.
func normalizeSSHKey(key string) string {
	normalized := strings.ReplaceAll(key, `\n`, "\n")
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.TrimSpace(normalized)
	return normalized + "\n"
}

// sshEnv is the lifecycle of a single SSH key material instance: written
// to a mode-0600 temp file for the duration of one network operation,
// then zero-overwritten and deleted on every exit path (Close is safe to
// call multiple times and after a failed Open).
type sshEnv struct {
	keyPath string
}

// openSSHEnv writes key to a private temp file and returns the env entry
// to graft onto a single exec.Cmd's environment. Never mutates the real
// process environment.
func openSSHEnv(key string) (*sshEnv, []string, error) {
	dir, err := os.MkdirTemp("", "git-datasource-ssh-")
	if err != nil {
		return nil, nil, errors.Errorf("creating ssh temp dir: %w", err)
	}

	keyPath := filepath.Join(dir, "key")
	normalized := normalizeSSHKey(key)
	if err := os.WriteFile(keyPath, []byte(normalized), 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, errors.Errorf("writing ssh key file: %w", err)
	}

	sshCmd := "ssh -i " + keyPath +
		" -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -o BatchMode=yes"

	env := &sshEnv{keyPath: keyPath}
	return env, []string{"GIT_SSH_COMMAND=" + sshCmd}, nil
}

// Close zero-overwrites and deletes the key file and its containing temp
// directory. Safe to call on a nil receiver or more than once.
func (e *sshEnv) Close() {
	if e == nil || e.keyPath == "" {
		return
	}
	if info, err := os.Stat(e.keyPath); err == nil {
		zeros := make([]byte, info.Size())
		_ = os.WriteFile(e.keyPath, zeros, 0o600)
	}
	_ = os.RemoveAll(filepath.Dir(e.keyPath))
	e.keyPath = ""
}

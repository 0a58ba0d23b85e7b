// Package sandbox contains file operations inside a session's root directory.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Violation means a resolved path would land outside the sandbox root.
type Violation struct {
	Root string
	Rel  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("path escapes sandbox root %q: %s", v.Root, v.Rel)
}

// Resolve joins rel onto root and returns the cleaned absolute path.
// The target does not have to exist (writes create new files); the only
// requirement is that the result, after symlink resolution, stays at or
// below root.
//
// Containment is checked component-wise via filepath.Rel, NOT by string
// prefix: a prefix check would accept a sibling like /work-2 for root /work.
func Resolve(root, rel string) (string, error) {
	return ResolveAt(root, root, rel)
}

// ResolveAt resolves rel against base (typically the session's current
// working directory) while still requiring the result to stay under root.
// Symlinks in both root and candidate are resolved before the containment
// check, so a link inside the root cannot point the result outside it.
func ResolveAt(root, base, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("could not absolutize root %q: %w", root, err)
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("could not absolutize base %q: %w", base, err)
	}

	candidate := rel
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(absBase, rel)
	}
	candidate = filepath.Clean(candidate)

	canonRoot, err := canonicalize(absRoot)
	if err != nil {
		return "", fmt.Errorf("could not canonicalize root %q: %w", absRoot, err)
	}
	canonCandidate, err := canonicalize(candidate)
	if err != nil {
		return "", fmt.Errorf("could not canonicalize path %q: %w", candidate, err)
	}

	inside, err := filepath.Rel(canonRoot, canonCandidate)
	if err != nil {
		return "", &Violation{Root: canonRoot, Rel: rel}
	}
	if inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", &Violation{Root: canonRoot, Rel: rel}
	}
	return canonCandidate, nil
}

// canonicalize resolves symlinks in the deepest existing ancestor of path
// and reattaches the not-yet-existing suffix lexically. The suffix is safe
// to reattach because path arrives cleaned, so it holds no dot segments.
func canonicalize(path string) (string, error) {
	suffix := ""
	p := path
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Clean(filepath.Join(resolved, suffix)), nil
		}
		if !os.IsNotExist(err) && !errors.Is(err, syscall.ENOTDIR) {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(p), suffix)
		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Join(p, suffix), nil
		}
		p = parent
	}
}

package gatehouse

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"
)

// PathResolver maps untrusted, client supplied relative paths to locations
// under a fixed storage root. Every accepted path, after symbolic links are
// resolved, is the root or lies strictly below it.
type PathResolver struct {
	root string
}

// NewPathResolver canonicalizes root and returns a resolver for it. The root
// must exist and be a directory.
func NewPathResolver(root string) (*PathResolver, error) {
	if root == "" {
		return nil, fmt.Errorf("new path resolver: %w: root is required", ErrInvalidInput)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("new path resolver: %w", err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("new path resolver: %w", err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("new path resolver: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("new path resolver: %w: %s is not a directory", ErrInvalidInput, root)
	}

	return &PathResolver{root: filepath.Clean(canonical)}, nil
}

// Root returns the canonical storage root.
func (r *PathResolver) Root() string {
	return r.root
}

// Resolve maps requested onto the storage root. The empty path and "." map
// to the root itself. Rejections wrap ErrPathRejected.
func (r *PathResolver) Resolve(requested string) (ResolvedPath, error) {
	segments, err := normalizeSegments(requested)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve %q: %w", requested, err)
	}

	resolved, err := r.resolveSegments(requested, segments)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve %q: %w", requested, err)
	}
	return resolved, nil
}

// ResolveForCreate resolves the destination of an upload. The subdirectory is
// first verified as supplied, then each of its segments and the filename are
// reduced to the safe character set, and the final path is verified again.
func (r *PathResolver) ResolveForCreate(subdir, filename string) (ResolvedPath, error) {
	requested := path.Join(subdir, filename)

	dirSegments, err := normalizeSegments(subdir)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve for create %q: %w", requested, err)
	}
	if _, err := r.resolveSegments(subdir, dirSegments); err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve for create %q: %w", requested, err)
	}

	safe := make([]string, 0, len(dirSegments)+1)
	for _, segment := range dirSegments {
		clean := SanitizeSegment(segment)
		if clean == "" {
			return ResolvedPath{}, fmt.Errorf("resolve for create %q: %w: directory %q has no safe characters", requested, ErrPathRejected, segment)
		}
		safe = append(safe, clean)
	}

	name, err := decodeName(filename)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve for create %q: %w", requested, err)
	}
	clean := SanitizeFilename(name)
	if clean == "" {
		return ResolvedPath{}, fmt.Errorf("resolve for create %q: %w: filename %q has no safe characters", requested, ErrPathRejected, name)
	}
	safe = append(safe, clean)

	resolved, err := r.resolveSegments(requested, safe)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("resolve for create %q: %w", requested, err)
	}
	return resolved, nil
}

// resolveSegments joins normalized segments onto the root, resolves any
// symbolic links along the existing prefix and checks containment.
func (r *PathResolver) resolveSegments(requested string, segments []string) (ResolvedPath, error) {
	candidate := filepath.Join(append([]string{r.root}, segments...)...)
	if !isWithin(r.root, candidate) {
		return ResolvedPath{}, fmt.Errorf("%w: outside root", ErrPathRejected)
	}

	canonical, err := canonicalize(r.root, candidate)
	if err != nil {
		return ResolvedPath{}, err
	}
	if !isWithin(r.root, canonical) {
		return ResolvedPath{}, fmt.Errorf("%w: symlink leads outside root", ErrPathRejected)
	}

	rel, err := filepath.Rel(r.root, canonical)
	if err != nil {
		return ResolvedPath{}, fmt.Errorf("%w: %w", ErrPathRejected, err)
	}

	return ResolvedPath{
		Root:      r.root,
		Requested: requested,
		Resolved:  canonical,
		Rel:       filepath.ToSlash(rel),
	}, nil
}

// normalizeSegments decodes requested exactly once and collapses it into a
// stack of plain segments. Any ".." that would pop past the root rejects the
// whole path rather than being clamped.
func normalizeSegments(requested string) ([]string, error) {
	decoded, err := url.PathUnescape(requested)
	if err != nil {
		return nil, fmt.Errorf("%w: bad percent encoding", ErrPathRejected)
	}
	if err := checkDecoded(decoded); err != nil {
		return nil, err
	}

	if decoded == "" {
		return nil, nil
	}
	if strings.HasPrefix(decoded, "/") {
		return nil, fmt.Errorf("%w: absolute path", ErrPathRejected)
	}

	parts := strings.Split(decoded, "/")
	stack := make([]string, 0, len(parts))
	for i, part := range parts {
		switch part {
		case "":
			if i == len(parts)-1 {
				continue
			}
			return nil, fmt.Errorf("%w: empty segment", ErrPathRejected)
		case ".":
			continue
		case "..":
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: escapes root", ErrPathRejected)
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, part)
		}
	}
	return stack, nil
}

// decodeName decodes a single file name. It may not carry path segments.
func decodeName(name string) (string, error) {
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", fmt.Errorf("%w: bad percent encoding", ErrPathRejected)
	}
	if err := checkDecoded(decoded); err != nil {
		return "", err
	}
	if decoded == "" || decoded == "." || decoded == ".." || strings.Contains(decoded, "/") {
		return "", fmt.Errorf("%w: invalid filename %q", ErrPathRejected, decoded)
	}
	return decoded, nil
}

// checkDecoded rejects characters that have no business in a storage path,
// including percent escapes that survived the single decode.
func checkDecoded(decoded string) error {
	if !utf8.ValidString(decoded) {
		return fmt.Errorf("%w: invalid utf-8", ErrPathRejected)
	}
	if strings.Contains(decoded, `\`) {
		return fmt.Errorf("%w: backslash", ErrPathRejected)
	}
	for _, c := range decoded {
		if c < 0x20 || c == 0x7f {
			return fmt.Errorf("%w: control character", ErrPathRejected)
		}
	}
	if hasPercentEscape(decoded) {
		return fmt.Errorf("%w: double encoding", ErrPathRejected)
	}
	return nil
}

func hasPercentEscape(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == '%' && isHex(s[i+1]) && isHex(s[i+2]) {
			return true
		}
	}
	return false
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// canonicalize resolves symbolic links along the longest existing prefix of
// target and appends the remaining, not yet existing, components.
func canonicalize(root, target string) (string, error) {
	existing, rest, err := nearestExisting(root, target)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPathRejected, err)
	}
	if rest == "" {
		return resolved, nil
	}
	return filepath.Join(resolved, rest), nil
}

func nearestExisting(root, target string) (string, string, error) {
	current := target
	var rest []string
	for {
		_, err := os.Lstat(current)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			return "", "", fmt.Errorf("%w: %w", ErrPathRejected, err)
		}
		if current == root {
			return "", "", fmt.Errorf("%w: root does not exist", ErrPathRejected)
		}
		rest = append([]string{filepath.Base(current)}, rest...)
		current = filepath.Dir(current)
	}
	return current, filepath.Join(rest...), nil
}

func isWithin(root, target string) bool {
	if target == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}

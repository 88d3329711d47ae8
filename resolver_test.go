package gatehouse_test

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/gatehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) (*gatehouse.PathResolver, string) {
	t.Helper()
	root := t.TempDir()
	r, err := gatehouse.NewPathResolver(root)
	require.NoError(t, err)
	return r, r.Root()
}

func requireWithinRoot(t *testing.T, root string, resolved gatehouse.ResolvedPath) {
	t.Helper()
	if resolved.Resolved == root {
		return
	}
	assert.True(t, strings.HasPrefix(resolved.Resolved, root+string(filepath.Separator)),
		"%q escaped root %q", resolved.Resolved, root)
}

func TestPathResolver_Resolve(t *testing.T) {
	r, root := newTestResolver(t)

	tests := []struct {
		name      string
		requested string
		rel       string
	}{
		{"empty is root", "", "."},
		{"dot is root", ".", "."},
		{"plain file", "a.txt", "a.txt"},
		{"nested", "reports/2024/q1.pdf", "reports/2024/q1.pdf"},
		{"trailing slash", "reports/2024/", "reports/2024"},
		{"dot segments collapse", "./a/./b", "a/b"},
		{"dotdot inside", "a/b/../c", "a/c"},
		{"dotdot back to root", "a/..", "."},
		{"percent space", "a%20b.txt", "a b.txt"},
		{"escaped percent", "100%25.txt", "100%.txt"},
		{"dots in name", "...", "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := r.Resolve(tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.rel, resolved.Rel)
			assert.Equal(t, tt.requested, resolved.Requested)
			assert.Equal(t, root, resolved.Root)
			requireWithinRoot(t, root, resolved)
		})
	}
}

func TestPathResolver_Resolve_Rejects(t *testing.T) {
	r, _ := newTestResolver(t)

	for _, p := range []string{
		"..",
		"../",
		"../../etc/passwd",
		"a/../../b",
		"a/b/../../../c",
		"/etc/passwd",
		"//etc/passwd",
		"a//b",
		`a\b`,
		`..\..\etc\passwd`,
		"%2e%2e",
		"%2e%2e/secret",
		"%2e%2e%2fsecret",
		"%2E%2E%2F%2E%2E%2Fetc",
		"%252e%252e%252fsecret",
		"a%2541",
		"%5c..%5c",
		"a%00b",
		"a\x00b",
		"line\nbreak",
		"%zz",
		"%",
	} {
		t.Run(p, func(t *testing.T) {
			_, err := r.Resolve(p)
			assert.ErrorIs(t, err, gatehouse.ErrPathRejected)
		})
	}
}

// Random mixes of traversal fragments either resolve inside the root or are rejected.
func TestPathResolver_Resolve_NeverEscapes(t *testing.T) {
	r, root := newTestResolver(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))

	fragments := []string{"..", ".", "a", "b", "%2e%2e", "%2f", "%2e", "/", "%252e", "x.txt", "%5c", "\\", ""}
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 5000; i++ {
		n := 1 + rng.IntN(8)
		parts := make([]string, n)
		for j := range parts {
			parts[j] = fragments[rng.IntN(len(fragments))]
		}
		requested := strings.Join(parts, "/")

		resolved, err := r.Resolve(requested)
		if err != nil {
			assert.ErrorIs(t, err, gatehouse.ErrPathRejected, "path %q", requested)
			continue
		}
		requireWithinRoot(t, root, resolved)
	}
}

func TestPathResolver_Symlinks(t *testing.T) {
	r, root := newTestResolver(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("a"), 0o600))

	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "leak.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "docs"), filepath.Join(root, "alias")))

	t.Run("directory link leaving root", func(t *testing.T) {
		_, err := r.Resolve("escape/secret.txt")
		assert.ErrorIs(t, err, gatehouse.ErrPathRejected)
	})

	t.Run("directory link leaving root with missing tail", func(t *testing.T) {
		_, err := r.Resolve("escape/new/file.txt")
		assert.ErrorIs(t, err, gatehouse.ErrPathRejected)
	})

	t.Run("file link leaving root", func(t *testing.T) {
		_, err := r.Resolve("leak.txt")
		assert.ErrorIs(t, err, gatehouse.ErrPathRejected)
	})

	t.Run("link inside root", func(t *testing.T) {
		resolved, err := r.Resolve("alias/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "docs/a.txt", resolved.Rel)
		assert.Equal(t, filepath.Join(root, "docs", "a.txt"), resolved.Resolved)
	})
}

func TestPathResolver_NonexistentTail(t *testing.T) {
	r, root := newTestResolver(t)

	resolved, err := r.Resolve("new/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "new", "dir", "file.txt"), resolved.Resolved)
}

func TestPathResolver_ThroughRegularFile(t *testing.T) {
	r, root := newTestResolver(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o600))

	resolved, err := r.Resolve("file.txt/child")
	require.NoError(t, err)
	assert.Equal(t, "file.txt/child", resolved.Rel)
}

func TestPathResolver_ResolveForCreate(t *testing.T) {
	r, _ := newTestResolver(t)

	tests := []struct {
		name     string
		subdir   string
		filename string
		rel      string
	}{
		{"plain", "", "a.txt", "a.txt"},
		{"nested", "reports/2024", "q1.pdf", "reports/2024/q1.pdf"},
		{"unsafe characters stripped", "My Docs!", "Q1 report (final).pdf", "MyDocs/Q1reportfinal.pdf"},
		{"extension sanitized separately", "", "data.t@r", "data.tr"},
		{"no extension", "x", "README", "x/README"},
		{"encoded subdir", "a%2Fb", "c.txt", "a/b/c.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := r.ResolveForCreate(tt.subdir, tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.rel, resolved.Rel)
		})
	}
}

func TestPathResolver_ResolveForCreate_Rejects(t *testing.T) {
	r, root := newTestResolver(t)
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(root, "out")))

	tests := []struct {
		name     string
		subdir   string
		filename string
	}{
		{"traversal subdir", "../etc", "a.txt"},
		{"encoded traversal subdir", "%2e%2e%2fetc", "a.txt"},
		{"segment without safe chars", "docs/***", "a.txt"},
		{"hidden file", "", ".bashrc"},
		{"dotdot filename", "", ".."},
		{"slash in filename", "", "a/b.txt"},
		{"encoded slash in filename", "", "a%2fb.txt"},
		{"empty filename", "", ""},
		{"symlink out of root", "out", "a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveForCreate(tt.subdir, tt.filename)
			assert.ErrorIs(t, err, gatehouse.ErrPathRejected)
		})
	}
}

func TestNewPathResolver(t *testing.T) {
	t.Run("empty root", func(t *testing.T) {
		_, err := gatehouse.NewPathResolver("")
		assert.ErrorIs(t, err, gatehouse.ErrInvalidInput)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := gatehouse.NewPathResolver(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f")
		require.NoError(t, os.WriteFile(file, nil, 0o600))
		_, err := gatehouse.NewPathResolver(file)
		assert.ErrorIs(t, err, gatehouse.ErrInvalidInput)
	})

	t.Run("symlinked root is canonicalized", func(t *testing.T) {
		real := t.TempDir()
		link := filepath.Join(t.TempDir(), "link")
		require.NoError(t, os.Symlink(real, link))

		r, err := gatehouse.NewPathResolver(link)
		require.NoError(t, err)
		canonical, err := filepath.EvalSymlinks(real)
		require.NoError(t, err)
		assert.Equal(t, canonical, r.Root())
	})
}

package clientcli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sagarc03/gatehouse/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatter(t *testing.T) {
	t.Run("json formatter", func(t *testing.T) {
		formatter := clientcli.NewFormatter(true, false)
		_, ok := formatter.(*clientcli.JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("human formatter quiet", func(t *testing.T) {
		formatter := clientcli.NewFormatter(false, true)
		hf, ok := formatter.(*clientcli.HumanFormatter)
		require.True(t, ok)
		assert.True(t, hf.Quiet)
	})
}

func TestHumanFormatter_FormatUpload(t *testing.T) {
	results := []clientcli.UploadResult{
		{LocalPath: "q1.pdf", RemotePath: "reports/2024/q1.pdf", Size: 1536},
		{LocalPath: "dup.txt", Err: errors.New("server error: 400 conflict")},
	}

	t.Run("mixed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatUpload(&buf, results))

		output := buf.String()
		assert.Contains(t, output, "Uploaded: reports/2024/q1.pdf (1.5 KB)")
		assert.Contains(t, output, "Error: dup.txt - server error: 400 conflict")
	})

	t.Run("quiet still reports errors", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatUpload(&buf, results))

		assert.NotContains(t, buf.String(), "Uploaded")
		assert.Contains(t, buf.String(), "Error: dup.txt")
	})
}

func TestHumanFormatter_FormatDownload(t *testing.T) {
	tests := []struct {
		name   string
		result clientcli.DownloadResult
		want   string
	}{
		{
			name:   "to file",
			result: clientcli.DownloadResult{RemotePath: "docs/readme.txt", LocalPath: "readme.txt", Size: 11},
			want:   "Downloaded: docs/readme.txt -> readme.txt (11 B)\n",
		},
		{
			name:   "to stdout",
			result: clientcli.DownloadResult{RemotePath: "docs/readme.txt", LocalPath: "-", Size: 2 * 1024 * 1024},
			want:   "Downloaded: docs/readme.txt (2.0 MB)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, (&clientcli.HumanFormatter{}).FormatDownload(&buf, &tt.result))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestHumanFormatter_FormatList(t *testing.T) {
	t.Run("files", func(t *testing.T) {
		var buf bytes.Buffer
		result := &clientcli.ListResult{Path: "reports/2024", Files: []string{"q1.pdf", "q2.pdf"}}
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, result))

		assert.Equal(t, "q1.pdf\nq2.pdf\n\n2 file(s) in reports/2024\n", buf.String())
	})

	t.Run("root", func(t *testing.T) {
		var buf bytes.Buffer
		result := &clientcli.ListResult{Files: []string{"a.txt"}}
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, result))

		assert.Contains(t, buf.String(), "1 file(s) in /")
	})

	t.Run("quiet prints names only", func(t *testing.T) {
		var buf bytes.Buffer
		result := &clientcli.ListResult{Files: []string{"a.txt", "b.txt"}}
		require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatList(&buf, result))

		assert.Equal(t, "a.txt\nb.txt\n", buf.String())
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, &clientcli.ListResult{}))

		assert.Equal(t, "No files found\n", buf.String())
	})
}

func TestHumanFormatter_Auth(t *testing.T) {
	formatter := &clientcli.HumanFormatter{}

	var buf bytes.Buffer
	require.NoError(t, formatter.FormatLogin(&buf, "admin", &clientcli.Token{ExpiresAt: time.Now().Add(time.Hour)}))
	assert.Contains(t, buf.String(), "Logged in as admin")

	buf.Reset()
	require.NoError(t, formatter.FormatWhoami(&buf, &clientcli.Identity{Username: "admin"}))
	assert.Equal(t, "admin\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.FormatRegister(&buf, "bob"))
	assert.Equal(t, "Registered: bob\n", buf.String())
}

func TestHumanFormatter_Profiles(t *testing.T) {
	profiles := []clientcli.Profile{
		{Name: "local", Endpoint: "http://localhost:8080", Username: "admin"},
		{Name: "prod", Endpoint: "https://files.example.com", Token: "eyJhbGciOiJIUzI1NiJ9.payload.sig"},
	}

	t.Run("list marks default", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileList(&buf, profiles, "prod", false))

		output := buf.String()
		assert.Contains(t, output, "NAME")
		assert.Contains(t, output, "* prod")
		assert.Contains(t, output, "  local")
	})

	t.Run("show masks token", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileShow(&buf, profiles[1], true, false))

		output := buf.String()
		assert.Contains(t, output, "prod (default)")
		assert.Contains(t, output, "Token:    eyJh....sig")
		assert.NotContains(t, output, "payload")
	})

	t.Run("show without token", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileShow(&buf, profiles[0], false, false))

		assert.Contains(t, buf.String(), "Token:    (not set)")
		assert.NotContains(t, buf.String(), "Expires")
	})
}

func TestJSONFormatter_FormatUpload(t *testing.T) {
	results := []clientcli.UploadResult{
		{LocalPath: "q1.pdf", RemotePath: "reports/q1.pdf", Size: 8},
		{LocalPath: "dup.txt", RemotePath: "dup.txt", Err: errors.New("conflict")},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatUpload(&buf, results))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, "reports/q1.pdf", decoded[0]["remote_path"])
	assert.InDelta(t, 8, decoded[0]["size_bytes"], 0)
	assert.NotContains(t, decoded[0], "error")
	assert.Equal(t, "conflict", decoded[1]["error"])
	assert.NotContains(t, decoded[1], "size_bytes")
}

func TestJSONFormatter_FormatLogin(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var buf bytes.Buffer
	token := &clientcli.Token{AccessToken: "jwt", TokenType: "bearer", ExpiresAt: expires}
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatLogin(&buf, "admin", token))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "admin", decoded["username"])
	assert.Equal(t, "jwt", decoded["access_token"])
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["expires_at"])
}

func TestJSONFormatter_FormatList(t *testing.T) {
	var buf bytes.Buffer
	result := &clientcli.ListResult{Path: "docs", Files: []string{"readme.txt"}}
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatList(&buf, result))

	var decoded clientcli.ListResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *result, decoded)
}

func TestJSONFormatter_FormatProfileShow(t *testing.T) {
	profile := clientcli.Profile{
		Name:           "prod",
		Endpoint:       "https://files.example.com",
		Token:          "eyJhbGciOiJIUzI1NiJ9.payload.sig",
		TokenExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("masked", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.JSONFormatter{}).FormatProfileShow(&buf, profile, true, false))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "eyJh....sig", decoded["token"])
		assert.Equal(t, true, decoded["default"])
		assert.Equal(t, "2026-01-01T00:00:00Z", decoded["token_expires_at"])
	})

	t.Run("revealed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.JSONFormatter{}).FormatProfileShow(&buf, profile, false, true))
		assert.Contains(t, buf.String(), profile.Token)
	})
}

func TestJSONFormatter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatError(&buf, errors.New("boom")))
	assert.JSONEq(t, `{"error":"boom"}`, buf.String())
}

package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/foomo/filebackup/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateListRestore(t *testing.T) {
	storage := t.TempDir()
	src := filepath.Join(t.TempDir(), "composer.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"v":1}`), 0o644))

	out := execute(t, "create", "--storage-path", storage, src)
	backupPath := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(storage, "backups"), filepath.Dir(backupPath))
	assert.FileExists(t, backupPath)

	out = execute(t, "list", "--storage-path", storage, src)
	assert.Equal(t, backupPath, strings.TrimSpace(out))

	require.NoError(t, os.WriteFile(src, []byte(`{"v":2}`), 0o644))
	out = execute(t, "restore", "--storage-path", storage, backupPath)
	assert.Equal(t, src, strings.TrimSpace(out))
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(data))

	target := filepath.Join(t.TempDir(), "nested", "composer.json")
	out = execute(t, "restore", "--storage-path", storage, backupPath, target)
	assert.Equal(t, target, strings.TrimSpace(out))
	assert.FileExists(t, target)
}

func TestCreateMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(t.TempDir(), "abs-backups")
	var files []string
	for _, name := range []string{"a.txt", "b.txt", ".env"} {
		file := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(file, []byte(name), 0o644))
		files = append(files, file)
	}

	out := execute(t, append([]string{"create", "--directory", backups}, files...)...)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, backups, filepath.Dir(line))
	}
}

func TestCreateMissingFile(t *testing.T) {
	root := cmd.NewRootCommand()
	root.SetArgs([]string{"create", "--storage-path", t.TempDir(), filepath.Join(t.TempDir(), "missing.txt")})
	root.SetOut(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestCleanupNothingToDelete(t *testing.T) {
	out := execute(t, "cleanup", "--storage-path", t.TempDir(), "--retention-days", "7")
	assert.Equal(t, "0", strings.TrimSpace(out))
}

func TestCleanupNegativeRetention(t *testing.T) {
	root := cmd.NewRootCommand()
	root.SetArgs([]string{"cleanup", "--storage-path", t.TempDir(), "--retention-days", "-1"})
	root.SetOut(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestConfigFile(t *testing.T) {
	storage := t.TempDir()
	config := filepath.Join(t.TempDir(), "filebackup.yaml")
	require.NoError(t, os.WriteFile(config, []byte("directory: from-config\n"), 0o644))
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0o644))

	out := execute(t, "create", "--config", config, "--storage-path", storage, src)
	assert.Equal(t, filepath.Join(storage, "from-config"), filepath.Dir(strings.TrimSpace(out)))
}

func TestUnknownRecordsType(t *testing.T) {
	root := cmd.NewRootCommand()
	root.SetArgs([]string{"list", "--storage-path", t.TempDir(), "--records-type", "s3", "a.txt"})
	root.SetOut(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

func TestBlobRecords(t *testing.T) {
	storage := t.TempDir()
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0o644))

	out := execute(t, "create", "--storage-path", storage, "--records-type", "blob", "--records-url", "mem://", src)
	assert.FileExists(t, strings.TrimSpace(out))
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := cmd.NewRootCommand()
	root.SetArgs(append(args, "--log-level", "error"))
	root.SetOut(&out)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestServeRejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []string{"0", "-1m"} {
		root := cmd.NewRootCommand()
		root.SetArgs([]string{"serve", "--storage-path", t.TempDir(), "--cleanup-interval=" + interval})
		root.SetOut(&bytes.Buffer{})
		err := root.Execute()
		require.Error(t, err, interval)
		assert.Contains(t, err.Error(), "cleanup interval must be positive")
	}
}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	assert.Equal(t, "filebackup latest", strings.TrimSpace(out))
}

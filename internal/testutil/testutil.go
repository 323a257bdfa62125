// Package testutil provides shared test helpers for creating config files and data fixtures.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a config file using file storage and a PDF
// output directory under tmpDir. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	dirs := []string{"data", "exports"}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`storage:
  driver: file
  directory: %s
catalog:
  timezone: UTC
pdf:
  engine: markdown
  output_directory: %s
`,
		filepath.Join(tmpDir, "data"),
		filepath.Join(tmpDir, "exports"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithServer appends client settings pointing at serverURL.
func SetupTestConfigWithServer(t *testing.T, tmpDir, serverURL string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte(fmt.Sprintf("client:\n  server_url: %s\n  retry_attempts: 0\n", serverURL))...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}

// WriteJSONFile writes v as JSON to dir/name and returns the file path.
func WriteJSONFile(t *testing.T, dir, name string, v any) string {
	t.Helper()

	content, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBaseResume creates a minimal resume template so config validation
// passes and the test reaches the check it targets.
func writeBaseResume(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "base_resume.html")
	err := os.WriteFile(path, []byte("<html><body><h1>Jonathan Smith</h1></body></html>"), 0644)
	require.NoError(t, err)
	return path
}

func TestRunCommand_MissingQuery(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run", "--base-resume", writeBaseResume(t))
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "--query is required")
}

func TestRunCommand_MissingDatabaseURL(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run",
		"--query", "golang developer",
		"--base-resume", writeBaseResume(t))
	cmd.Env = envWithout("DATABASE_URL")

	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "DATABASE_URL environment variable or --db-url flag is required")
}

func TestRunCommand_MissingAPIKey(t *testing.T) {
	binaryPath := getBinaryPath(t)

	// All AI stages are in the default range, so a key is required even
	// though discovery itself never calls the API.
	cmd := exec.Command(binaryPath, "run",
		"--query", "golang developer",
		"--base-resume", writeBaseResume(t),
		"--db-url", "postgres://test")
	cmd.Env = envWithout("GEMINI_API_KEY")

	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "GEMINI_API_KEY environment variable or --api-key flag is required")
}

func TestRunCommand_DetailOnlyRunNeedsNoQuery(t *testing.T) {
	binaryPath := getBinaryPath(t)

	// Without the discovery stage the query requirement does not apply; the
	// run fails on the database URL instead.
	cmd := exec.Command(binaryPath, "run",
		"--start-stage", "detail",
		"--end-stage", "detail",
		"--base-resume", writeBaseResume(t))
	cmd.Env = envWithout("DATABASE_URL", "GEMINI_API_KEY")

	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "DATABASE_URL")
	assert.NotContains(t, string(output), "--query is required")
}

func TestRunCommand_InvalidStage(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run", "--start-stage", "shipping")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "invalid start_stage")
}

func TestRunCommand_StageOrderValidated(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run", "--start-stage", "tailoring", "--end-stage", "detail")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "is after")
}

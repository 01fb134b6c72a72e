package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// getBinaryPath returns the path to the job_agent binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "job_agent"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/job_agent ./cmd/job_agent'", binaryPath)
	}

	return binaryPath
}

// envWithout returns the current environment minus the named variables, so a
// test can prove an error fires even when the developer's shell has the
// variable set.
func envWithout(keys ...string) []string {
	var env []string
	for _, entry := range os.Environ() {
		keep := true
		for _, key := range keys {
			if strings.HasPrefix(entry, key+"=") {
				keep = false
				break
			}
		}
		if keep {
			env = append(env, entry)
		}
	}
	return env
}

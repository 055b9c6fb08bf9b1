package main

import (
	"strings"
	"testing"
)

func TestRun_InvalidConfiguration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCHOOLHUB_LOG_LEVEL", "loud")

	err := run()
	if err == nil {
		t.Fatal("Expected run to fail on invalid configuration")
	}
	if !strings.Contains(err.Error(), "failed to load configuration") {
		t.Errorf("Unexpected error: %v", err)
	}
}

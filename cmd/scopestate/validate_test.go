package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeCmd runs the root command with args and returns captured stdout
// and any error.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	// restore stdout
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	return buf.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestRunValidate_ValidYAML(t *testing.T) {
	configPath := writeConfig(t, "seed.yaml", `
port: 9090
metrics: true
scopes:
  - name: greeting
    value: Yada
  - name: settings
    value:
      theme: dark
`)

	output, err := executeCmd(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Port:      9090",
		"Log level: info",
		"Metrics:   true",
		"Scopes:    2 (greeting, settings)",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_ValidTOML(t *testing.T) {
	configPath := writeConfig(t, "seed.toml", `
log_level = "debug"

[[scopes]]
name = "greeting"
value = "Yada"
`)

	output, err := executeCmd(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	for _, phrase := range []string{"Config is valid!", "Log level: debug", "Scopes:    1 (greeting)"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
scopes:
  - name: ""
    value: 1
`)

	_, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate command expected error for invalid config, got nil")
	}

	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("error should mention 'name is required', got: %v", err)
	}
}

func TestRunValidate_UnsupportedExtension(t *testing.T) {
	configPath := writeConfig(t, "seed.json", `{}`)

	_, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate command expected error for .json config, got nil")
	}

	if !strings.Contains(err.Error(), "unsupported config extension") {
		t.Errorf("error should mention 'unsupported config extension', got: %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command error = %v", err)
	}

	if !strings.Contains(out.String(), "scopestate dev") {
		t.Errorf("output = %q, want it to contain 'scopestate dev'", out.String())
	}
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := "database:\n  addrs: [\"localhost:6379\"]\nembedding:\n  dimensions: 8\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoggerEnv(t *testing.T) {
	tests := map[string]string{"prod": "prod", "dev": "dev", "staging": "local", "": "local"}
	for in, want := range tests {
		if got := loggerEnv(in); got != want {
			t.Errorf("loggerEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"index", "train", "compare", "ask", "health"} {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("command %q not registered: %v", name, err)
		}
	}
}

func TestMissingInputFails(t *testing.T) {
	cfgPath := writeConfig(t)
	missing := filepath.Join(t.TempDir(), "absent")

	tests := [][]string{
		{"index", "--passages", missing},
		{"train", "--queries", missing},
		{"compare", "--questions", missing},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			buf := new(bytes.Buffer)
			rootCmd.SetOut(buf)
			rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))

			err := rootCmd.Execute()
			if err == nil || !strings.Contains(err.Error(), "absent") {
				t.Fatalf("err = %v, want open error naming the file", err)
			}
		})
	}
}

func TestCompare_InvalidMode(t *testing.T) {
	rootCmd.SetArgs([]string{"--config", writeConfig(t), "compare", "--modes", "semantic"})
	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "invalid mode") {
		t.Fatalf("err = %v, want invalid mode", err)
	}
}

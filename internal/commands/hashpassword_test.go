package commands

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klabast/wb-services/garden-planner/internal/app"
)

func runHashPassword(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(nil)
	cmd.SetArgs(append([]string{"hash-password", "--insecure-unmask-password"}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func readAuthFile(t *testing.T, path string) (string, string) {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read auth file: %v", err)
	}
	user, hash, ok := strings.Cut(strings.TrimSpace(string(content)), ":")
	if !ok {
		t.Fatalf("Auth file should contain username:hash, got %q", content)
	}
	return user, hash
}

func TestHashPasswordCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.secret")
	t.Setenv("GARDEN_SERVER_AUTH_FILE", path)

	out, err := runHashPassword(t, "gardener\nTomatoes2024\nTomatoes2024\n")
	if err != nil {
		t.Fatalf("hash-password failed: %v", err)
	}
	if !strings.Contains(out, "Auth file created: "+path) {
		t.Errorf("Unexpected output %q", out)
	}

	user, hash := readAuthFile(t, path)
	if user != "gardener" {
		t.Errorf("Expected username gardener, got %s", user)
	}
	if ok, err := app.VerifyPassword("Tomatoes2024", hash); err != nil || !ok {
		t.Errorf("Stored hash does not verify: %v", err)
	}

	t.Run("Declined overwrite", func(t *testing.T) {
		_, err := runHashPassword(t, "other\nKale2024\nKale2024\nn\n")
		if !errors.Is(err, errAborted) {
			t.Errorf("Expected errAborted, got %v", err)
		}
		if user, _ := readAuthFile(t, path); user != "gardener" {
			t.Errorf("File should be unchanged, got user %s", user)
		}
	})

	t.Run("Confirmed overwrite", func(t *testing.T) {
		if _, err := runHashPassword(t, "other\nKale2024\nKale2024\nyes\n"); err != nil {
			t.Fatalf("hash-password failed: %v", err)
		}
		if user, _ := readAuthFile(t, path); user != "other" {
			t.Errorf("Expected username other, got %s", user)
		}
	})

	t.Run("Overwrite flag", func(t *testing.T) {
		if _, err := runHashPassword(t, "third\nOkra2024\nOkra2024\n", "--overwrite"); err != nil {
			t.Fatalf("hash-password failed: %v", err)
		}
		if user, _ := readAuthFile(t, path); user != "third" {
			t.Errorf("Expected username third, got %s", user)
		}
	})
}

func TestHashPasswordAuthFileFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.secret")

	if _, err := runHashPassword(t, "gardener\nSpinach2024\nSpinach2024\n", "--auth-file", path); err != nil {
		t.Fatalf("hash-password failed: %v", err)
	}
	if user, _ := readAuthFile(t, path); user != "gardener" {
		t.Errorf("Expected username gardener, got %s", user)
	}
}

func TestHashPasswordInvalidInput(t *testing.T) {
	t.Setenv("GARDEN_SERVER_AUTH_FILE", filepath.Join(t.TempDir(), "auth.secret"))

	tests := []struct {
		name    string
		stdin   string
		wantErr string
	}{
		{"Empty username", "\nsecret\nsecret\n", "username cannot be empty"},
		{"Empty password", "gardener\n\n\n", "password cannot be empty"},
		{"Mismatch", "gardener\nsecret\nsecrets\n", "passwords do not match"},
		{"No input", "", "error reading username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runHashPassword(t, tt.stdin)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

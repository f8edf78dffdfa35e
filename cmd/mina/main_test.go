package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/nvandessel/mina/internal/config"
	"github.com/spf13/cobra"
)

// webTrace has increments [1 3 3 1 1 1 2 6]: root 18, three levels.
const webTrace = "0\n1\n4\n7\n8\n9\n10\n12\n18\n"

// isolateHome points HOME at a temp directory so tests never touch ~/.mina.
// MUST be called for any test that loads config or opens a catalog.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

// writeTrace writes webTrace to a file in dir and returns its path.
func writeTrace(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "trace.txt")
	if err := os.WriteFile(path, []byte(webTrace), 0600); err != nil {
		t.Fatalf("Failed to write trace: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"version", "generate", "fit", "models", "inspect", "stats", "config", "mcp-server"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"json", "root", "log-level"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("root command missing persistent flag --%s", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "mina version "+version) {
		t.Errorf("output = %q, want version string", out)
	}

	out, err = runCLI(t, "", "version", "--json")
	if err != nil {
		t.Fatalf("version --json failed: %v", err)
	}
	if !strings.Contains(out, `"version"`) {
		t.Errorf("json output = %q, want version key", out)
	}
}

func TestRootWithoutFlagsShowsHelp(t *testing.T) {
	isolateHome(t)
	out, err := runCLI(t, "")
	if err != nil {
		t.Fatalf("root failed: %v", err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("output = %q, want help text", out)
	}
}

func TestResolveGenerateOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    generateOptions
		wantErr bool
	}{
		{
			name: "config defaults",
			args: nil,
			want: generateOptions{length: 1000, seed: 42, kind: "cascade", format: "text", batch: 1024},
		},
		{
			name: "flags override",
			args: []string{"-n", "5", "--seed", "9", "--model", "poisson", "--format", "arrow", "--batch-size", "16"},
			want: generateOptions{length: 5, seed: 9, kind: "poisson", format: "arrow", batch: 16},
		},
		{
			name: "negative seed wraps",
			args: []string{"--seed", "-1"},
			want: generateOptions{length: 1000, seed: ^uint64(0), kind: "cascade", format: "text", batch: 1024},
		},
		{
			name:    "invalid seed",
			args:    []string{"--seed", "abc"},
			wantErr: true,
		},
		{
			name:    "negative length",
			args:    []string{"-n", "-3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "generate"}
			addGenerateFlags(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags failed: %v", err)
			}

			got, err := resolveGenerateOptions(cmd, config.Default())
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveGenerateOptions failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveGenerateOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfigSetAndGet(t *testing.T) {
	home := isolateHome(t)

	if _, err := runCLI(t, "", "config", "set", "generator.model", "poisson"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".mina", "config.yaml")); err != nil {
		t.Fatalf("config.yaml not written: %v", err)
	}

	out, err := runCLI(t, "", "config", "get", "generator.model")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "generator.model = poisson" {
		t.Errorf("config get = %q", out)
	}

	out, err = runCLI(t, "", "config", "list")
	if err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	for _, key := range config.Keys {
		if !strings.Contains(out, key) {
			t.Errorf("config list missing %s", key)
		}
	}
}

func TestConfigSet_Invalid(t *testing.T) {
	isolateHome(t)

	if _, err := runCLI(t, "", "config", "set", "generator.model", "gaussian"); err == nil {
		t.Error("expected error for invalid model")
	}
	if _, err := runCLI(t, "", "config", "set", "no.such.key", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := runCLI(t, "", "config", "get", "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestConfigSet_DoesNotPersistEnv(t *testing.T) {
	home := isolateHome(t)
	t.Setenv("MINA_SEED", "99")

	if _, err := runCLI(t, "", "config", "set", "generator.length", "10"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}

	cfg, err := config.LoadFromFile(filepath.Join(home, ".mina", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Generator.Seed != config.Default().Generator.Seed {
		t.Errorf("seed = %d, environment override leaked into config file", cfg.Generator.Seed)
	}
	if cfg.Generator.Length != 10 {
		t.Errorf("length = %d, want 10", cfg.Generator.Length)
	}
}

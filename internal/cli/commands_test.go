package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/reorg/internal/config"
	"github.com/danieljhkim/reorg/internal/engine"
)

const workspaceModel = `
projects:
  - name: P
    roots:
      - path: src
        packages:
          - name: p
            units:
              - name: A.java
                source: |
                  package p;

                  public class A {
                  }
                members:
                  - type: A
          - name: q
    folders:
      - name: docs
        files:
          - name: config.xml
            content: '<bean class="p.A"/>'
`

// setupTestEnv points REORG_HOME at a temp directory and writes the model.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv(config.HomeEnv, filepath.Join(tmpDir, "home"))

	modelPath := filepath.Join(tmpDir, "workspace.yaml")
	if err := os.WriteFile(modelPath, []byte(workspaceModel), 0644); err != nil {
		t.Fatalf("failed to write model: %v", err)
	}
	resetFlags(t)
	return modelPath
}

// execute runs the root command and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	rootCmd.SetArgs(args)
	var err error
	out := captureStdout(t, func() {
		err = rootCmd.Execute()
	})
	return out, err
}

type planOutput struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Result  *engine.PlanResult `json:"result"`
}

func decodePlan(t *testing.T, out string) planOutput {
	t.Helper()
	var v planOutput
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	return v
}

func TestPlanCommand_SaveAndReplay(t *testing.T) {
	modelPath := setupTestEnv(t)

	out, err := execute(t, "plan", "move", "--json", "--yes", "--save", "--diff",
		"--model", modelPath, "--select", "=P/src<p{A.java", "--dest", "=P/src<q",
		"--qualified", "--patterns", "*.xml")
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, out)
	}
	planned := decodePlan(t, out)
	if !planned.Success || planned.Result == nil {
		t.Fatalf("unexpected output: %s", out)
	}
	if planned.Result.Policy != "move.resources" {
		t.Errorf("Policy = %s", planned.Result.Policy)
	}
	if len(planned.Result.Previews) != 1 || !strings.Contains(planned.Result.Previews[0].Diff, "q.A") {
		t.Errorf("unexpected previews: %+v", planned.Result.Previews)
	}
	id := planned.Result.HistoryID
	if id == "" {
		t.Fatal("expected a history id")
	}

	out, err = execute(t, "history", "ls", "--json")
	if err != nil {
		t.Fatalf("history ls failed: %v", err)
	}
	var infos []engine.HistoryInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(infos) != 1 || infos[0].ID != id || infos[0].Model != modelPath {
		t.Fatalf("unexpected history: %+v", infos)
	}

	out, err = execute(t, "replay", id[:8], "--json", "--yes")
	if err != nil {
		t.Fatalf("replay failed: %v\n%s", err, out)
	}
	replayed := decodePlan(t, out)
	if replayed.Result.Label != planned.Result.Label || len(replayed.Result.Changes) != len(planned.Result.Changes) {
		t.Errorf("replay differs:\nplanned  %+v\nreplayed %+v", planned.Result, replayed.Result)
	}

	if _, err := execute(t, "history", "rm", id, "--yes"); err != nil {
		t.Fatalf("history rm failed: %v", err)
	}
	if _, err := execute(t, "history", "show", id); err == nil {
		t.Error("expected show of a deleted record to fail")
	}
}

func TestPlanCommand_ValidationFailure(t *testing.T) {
	modelPath := setupTestEnv(t)

	out, err := execute(t, "plan", "move", "--json", "--yes",
		"--model", modelPath, "--select", "=P/src<p{A.java", "--dest", "=P/src<p")
	if err == nil {
		t.Fatal("expected an error for the current parent")
	}
	v := decodePlan(t, out)
	if v.Success || v.Result == nil || len(v.Result.Status) == 0 {
		t.Fatalf("unexpected output: %s", out)
	}
	if v.Result.Status[0].Code != "dest.parent" {
		t.Errorf("status = %+v", v.Result.Status)
	}
}

func TestPlanCommand_ModelFromEnvironment(t *testing.T) {
	modelPath := setupTestEnv(t)
	t.Setenv("REORG_PLAN_MODEL", modelPath)

	out, err := execute(t, "plan", "copy", "--json",
		"--select", "/P/docs/config.xml", "--dest", "=P/src<q")
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, out)
	}
	if v := decodePlan(t, out); v.Result.Policy != "copy.resources" {
		t.Errorf("Policy = %s", v.Result.Policy)
	}
}

func TestHistoryLsCommand_Empty(t *testing.T) {
	setupTestEnv(t)

	out, err := execute(t, "history", "ls", "--json")
	if err != nil {
		t.Fatalf("history ls failed: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("expected an empty JSON list, got %q", out)
	}
}

func TestCheckEnvironmentVariables(t *testing.T) {
	newSample := func() *cobra.Command {
		cmd := &cobra.Command{Use: "sample"}
		cmd.Flags().String("model", "", "")
		cmd.Flags().StringSlice("select", nil, "")
		cmd.Flags().String("file-patterns", "", "")
		cmd.Flags().Bool("save", false, "")
		return cmd
	}

	t.Run("fills unset flags", func(t *testing.T) {
		t.Setenv("REORG_SAMPLE_MODEL", "ws.yaml")
		t.Setenv("REORG_SAMPLE_SELECT", "a,b")
		t.Setenv("REORG_SAMPLE_FILE_PATTERNS", "*.xml")
		cmd := newSample()
		if err := cmd.Flags().Set("save", "true"); err != nil {
			t.Fatal(err)
		}
		t.Setenv("REORG_SAMPLE_SAVE", "false")

		if err := checkEnvironmentVariables(cmd); err != nil {
			t.Fatalf("checkEnvironmentVariables() error = %v", err)
		}
		if got, _ := cmd.Flags().GetString("model"); got != "ws.yaml" {
			t.Errorf("model = %q", got)
		}
		if got, _ := cmd.Flags().GetStringSlice("select"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("select = %v", got)
		}
		if got, _ := cmd.Flags().GetString("file-patterns"); got != "*.xml" {
			t.Errorf("file-patterns = %q", got)
		}
		if got, _ := cmd.Flags().GetBool("save"); !got {
			t.Error("a flag set on the command line must win over the environment")
		}
	})

	t.Run("reports bad values", func(t *testing.T) {
		t.Setenv("REORG_SAMPLE_SAVE", "maybe")
		err := checkEnvironmentVariables(newSample())
		if err == nil || !strings.Contains(err.Error(), envErrorPrefix) {
			t.Errorf("checkEnvironmentVariables() error = %v", err)
		}
	})
}

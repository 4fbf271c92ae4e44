package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.String()
	}()

	defer func() {
		os.Stdout = oldStdout
	}()
	fn()
	_ = w.Close()
	return <-done
}

// resetFlags restores every flag of every command to its default so tests
// sharing rootCmd do not leak flag values into each other.
func resetFlags(t *testing.T) {
	t.Helper()
	var reset func(cmd *cobra.Command)
	reset = func(cmd *cobra.Command) {
		visit := func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		}
		cmd.Flags().VisitAll(visit)
		cmd.PersistentFlags().VisitAll(visit)
		for _, c := range cmd.Commands() {
			reset(c)
		}
	}
	reset(rootCmd)
}

func TestFormatJSON(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{
			name:  "simple map",
			input: map[string]string{"key": "value"},
			want:  "{\n  \"key\": \"value\"\n}",
		},
		{
			name:  "empty map",
			input: map[string]string{},
			want:  "{}",
		},
		{
			name:  "array",
			input: []string{"a", "b", "c"},
			want:  "[\n  \"a\",\n  \"b\",\n  \"c\"\n]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatJSON(tt.input)
			if err != nil {
				t.Fatalf("formatJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("formatJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	got := formatError(os.ErrNotExist)
	if !strings.Contains(got, "Error:") || !strings.Contains(got, "file does not exist") {
		t.Errorf("formatError() = %q", got)
	}
}

func TestOutputJSON(t *testing.T) {
	output := captureStdout(t, func() {
		if err := outputJSON(map[string]string{"test": "value"}); err != nil {
			t.Errorf("outputJSON() error = %v", err)
		}
	})

	var v map[string]string
	if err := json.Unmarshal([]byte(output), &v); err != nil {
		t.Fatalf("outputJSON() produced invalid JSON: %v", err)
	}
	if v["test"] != "value" {
		t.Errorf("unexpected output: %v", v)
	}
}

func TestOutputResultJSON(t *testing.T) {
	cmdErr := errors.New("validation failed")
	var err error
	output := captureStdout(t, func() {
		err = outputResultJSON(map[string]string{"id": "x"}, cmdErr)
	})
	if !errors.Is(err, cmdErr) {
		t.Errorf("outputResultJSON() error = %v, want the command error", err)
	}

	var v map[string]any
	if err := json.Unmarshal([]byte(output), &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v["success"] != false || v["error"] != "validation failed" {
		t.Errorf("unexpected output: %v", v)
	}
}

func TestPrintFunctions(t *testing.T) {
	oldStderr := os.Stderr
	rErr, wErr, _ := os.Pipe()
	os.Stderr = wErr

	output := captureStdout(t, func() {
		PrintInfo("Info message")
		PrintError("Error message")
	})

	_ = wErr.Close()
	os.Stderr = oldStderr
	var bufErr bytes.Buffer
	_, _ = bufErr.ReadFrom(rErr)

	if !strings.Contains(output, "Info message") {
		t.Errorf("PrintInfo should write to stdout, got %q", output)
	}
	if !strings.Contains(bufErr.String(), "Error message") {
		t.Errorf("PrintError should write to stderr, got %q", bufErr.String())
	}
}

func TestPrintCount(t *testing.T) {
	if got := PrintCount(1, "item", "items"); got != "1 item" {
		t.Errorf("PrintCount(1) = %q", got)
	}
	if got := PrintCount(3, "item", "items"); got != "3 items" {
		t.Errorf("PrintCount(3) = %q", got)
	}
}

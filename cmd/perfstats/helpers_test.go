package perfstats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const textLog = `Time: 2024-10-01T12:00:00Z
Route: POST /create_user
Duration: 120 ms
CPU Usage (start): 3.00%, CPU Usage (end): 5.00%
Transaction Success: Yes
Test Type: sequential
---
Time: 2024-10-01T12:00:01Z
Route: POST /create_user
Duration: 80 ms
Transaction Success: No
Test Type: sequential
---
this block is garbage
---
Time: 2024-10-01T12:00:02Z
Route: GET /balance?address=5Grw
Duration: 15 ms
Test Type: concurrent
---
Time: 2024-10-01T12:00:03Z
Route: GET /balance
Test Type: concurrent
`

const jsonLog = `[
  {"time": "2024-10-01T12:00:04Z", "route": "GET /balance", "duration": "25 ms", "testType": "concurrent", "transactionSuccess": "Yes"},
  {"time": "2024-10-01T12:00:05Z", "route": "POST /create_user", "duration": 100, "testType": "sequential", "transactionSuccess": "Yes"}
]`

type cliResult struct {
	stdout string
	stderr string
	code   int
}

// isolateEnv clears every variable perfstats reads so the host environment
// cannot leak into a test. Cleanup restores the previous values.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"NO_COLOR", "PERFSTATS_CONFIG",
		"LOG_FILE", "PERFSTATS_LOG_FILE",
		"LOG_FORMAT", "PERFSTATS_LOG_FORMAT",
		"OUTPUT_DIR", "PERFSTATS_OUTPUT_DIR",
		"CONCURRENCY", "PERFSTATS_CONCURRENCY",
	} {
		t.Setenv(name, "")
		if err := os.Unsetenv(name); err != nil {
			t.Fatalf("unset %s: %v", name, err)
		}
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func resetCommandFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCommandFlags(sub)
	}
}

// runCLI executes the root command in dir with fresh flags.
func runCLI(t *testing.T, dir, stdin string, args ...string) cliResult {
	t.Helper()
	t.Chdir(dir)
	resetCommandFlags(rootCmd)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	}()

	code := ExecuteWithExitCode()
	return cliResult{stdout: out.String(), stderr: errOut.String(), code: code}
}

func writeTestFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rere/internal/input"
	"github.com/xkilldash9x/rere/internal/macro"
	"github.com/xkilldash9x/rere/internal/observability"
	"github.com/xkilldash9x/rere/internal/recorder"
)

// testEnv is an isolated config file plus the directories it points at.
type testEnv struct {
	configPath  string
	macrosDir   string
	profilesDir string
}

// resetForTest restores package level state and writes a config file that
// keeps every store inside t.TempDir.
func resetForTest(t *testing.T) *testEnv {
	t.Helper()

	cfgFile = ""
	newSystemSink = input.NewSystemSink
	newSystemSource = recorder.NewSystemSource
	observability.ResetForTest()
	t.Cleanup(func() {
		newSystemSink = input.NewSystemSink
		newSystemSource = recorder.NewSystemSource
		observability.ResetForTest()
	})

	root := t.TempDir()
	env := &testEnv{
		configPath:  filepath.Join(root, "config.yaml"),
		macrosDir:   filepath.Join(root, "macros"),
		profilesDir: filepath.Join(root, "profiles"),
	}
	yaml := fmt.Sprintf(`logger:
  level: error
storage:
  macros_dir: %q
  profiles_dir: %q
`, env.macrosDir, env.profilesDir)
	require.NoError(t, os.WriteFile(env.configPath, []byte(yaml), 0o644))
	return env
}

// run executes a fresh command tree against the test config.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runContext(t, context.Background(), args...)
}

func (e *testEnv) runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

// saveMacro writes a macro straight into the configured library.
func (e *testEnv) saveMacro(t *testing.T, name string, events []macro.Event) {
	t.Helper()
	store, err := macro.NewStore(e.macrosDir, zap.NewNop())
	require.NoError(t, err)
	_, err = store.Save(name, events)
	require.NoError(t, err)
}

func tapMacro() []macro.Event {
	return []macro.Event{
		{Kind: macro.KeyDown, T: 0, Key: "a"},
		{Kind: macro.MouseMove, T: 0.01, DX: 5, DY: -3},
		{Kind: macro.KeyUp, T: 0.03, Key: "a"},
	}
}

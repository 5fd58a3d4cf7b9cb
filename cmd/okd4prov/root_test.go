package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/okd4prov/internal/app"
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/config"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/felixgeelhaar/okd4prov/internal/testutil"
	"github.com/felixgeelhaar/okd4prov/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listServices = "sudo -n firewall-cmd --list-services"

// withShell routes the commands under test to sh and restores the global
// flags afterwards.
func withShell(t *testing.T, sh *mocks.Shell) {
	t.Helper()

	orig := newProvisioner
	newProvisioner = func(out io.Writer, opts ...app.Option) *app.Provisioner {
		base := []app.Option{
			app.WithConnector(func(context.Context, config.HostConfig) (ports.Shell, error) {
				return sh, nil
			}),
			app.WithColor(false),
		}
		return app.New(out, append(base, opts...)...)
	}
	t.Cleanup(func() {
		newProvisioner = orig
		cfgFile = config.DefaultPath
		verbose = false
		applyDryRun = false
		applyMetricsFile = ""
	})
}

func fedoraShell() *mocks.Shell {
	sh := mocks.NewShell()
	sh.AddOutput("cat /etc/os-release", "NAME=\"Fedora Linux\"\nID=fedora\nVERSION_ID=39\n")
	sh.AddOutput("id -un", "okd\n")
	return sh
}

func writeInventory(t *testing.T, steps ...string) string {
	t.Helper()
	return testutil.WriteTempFile(t, t.TempDir(), "okd4.yaml",
		testutil.NewInventoryBuilder().WithSteps(steps...).ToYAML())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_UseLine(t *testing.T) {
	assert.Equal(t, "okd4prov", rootCmd.Use)
}

func TestRootCommand_HasPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	t.Run("config flag exists", func(t *testing.T) {
		flag := flags.Lookup("config")
		require.NotNil(t, flag)
		assert.Equal(t, "okd4.yaml", flag.DefValue)
		assert.Equal(t, "c", flag.Shorthand)
	})

	t.Run("verbose flag exists", func(t *testing.T) {
		flag := flags.Lookup("verbose")
		require.NotNil(t, flag)
		assert.Equal(t, "false", flag.DefValue)
	})

	t.Run("log-json flag exists", func(t *testing.T) {
		require.NotNil(t, flags.Lookup("log-json"))
	})

	t.Run("no-color flag exists", func(t *testing.T) {
		require.NotNil(t, flags.Lookup("no-color"))
	})
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"apply", "facts", "plan", "steps", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "okd4prov dev")
	assert.Contains(t, out, "commit: none")
}

func TestStepsCommand(t *testing.T) {
	out, err := run(t, "steps")
	require.NoError(t, err)
	assert.Contains(t, out, " 1. package-repos\n")
	assert.Contains(t, out, "15. dns-records\n")
}

func TestFactsCommand(t *testing.T) {
	withShell(t, fedoraShell())

	out, err := run(t, "facts", "-c", writeInventory(t, "firewall"))
	require.NoError(t, err)
	assert.Contains(t, out, "Distribution:  Fedora Linux (fedora)")
	assert.Contains(t, out, "Cluster:       okd4.example.com")
}

func TestPlanCommand(t *testing.T) {
	sh := fedoraShell()
	sh.AddOutput(listServices, "ssh http\n")
	withShell(t, sh)

	out, err := run(t, "plan", "-c", writeInventory(t, "firewall"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ firewall:service:http")
	assert.Contains(t, out, "+ firewall:service:https")
	assert.Contains(t, out, "2 to apply")
	testutil.AssertNotRan(t, sh, "sudo -n firewall-cmd --add-service=https")
	assert.True(t, sh.Closed())
}

func TestApplyCommand_WritesMetrics(t *testing.T) {
	sh := fedoraShell()
	sh.AddOutput(listServices, "ssh http https\n")
	sh.AddOK("sudo -n firewall-cmd --add-service=tftp")
	sh.AddOK("sudo -n firewall-cmd --add-service=tftp --permanent")
	withShell(t, sh)

	metricsFile := filepath.Join(t.TempDir(), "okd4prov.prom")
	out, err := run(t, "apply", "-c", writeInventory(t, "firewall"), "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Applying 3 steps to okd4.example.com")
	assert.Contains(t, out, "Summary: 1 applied, 2 satisfied, 0 skipped")

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `okd4prov_steps_total{stage="firewall",status="applied"} 1`)
	assert.Contains(t, string(data), "okd4prov_last_run_success 1")
}

func TestApplyCommand_DryRun(t *testing.T) {
	sh := fedoraShell()
	sh.AddOutput(listServices, "ssh\n")
	withShell(t, sh)

	out, err := run(t, "apply", "-c", writeInventory(t, "firewall"), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "3 would apply")
	testutil.AssertNotRan(t, sh, "sudo -n firewall-cmd --add-service=http")
}

func TestApplyCommand_Failure(t *testing.T) {
	sh := fedoraShell()
	sh.AddOutput(listServices, "ssh\n")
	sh.AddResult("sudo -n firewall-cmd --add-service=http", ports.CommandResult{ExitCode: 252, Stderr: "FirewallD is not running"})
	withShell(t, sh)

	out, err := run(t, "apply", "-c", writeInventory(t, "firewall"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply failed")

	var stepErr *compiler.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, compiler.ErrCodeApplyFailed, stepErr.Code)

	assert.Contains(t, out, "exited with code 252: FirewallD is not running")

	var buf bytes.Buffer
	printErrorTo(&buf, err)
	assert.Contains(t, buf.String(), "exited with code 252: FirewallD is not running")
	assert.Contains(t, buf.String(), "Suggestion: Fix the cause and re-run")
	assert.NotContains(t, buf.String(), "[APPLY_FAILED]")
}

func TestPlanCommand_MissingInventory(t *testing.T) {
	withShell(t, fedoraShell())

	_, err := run(t, "plan", "-c", filepath.Join(t.TempDir(), "okd4.yaml"))
	require.Error(t, err)
	assert.Contains(t, formatError(err), "Suggestion:")
}

func TestFormatError(t *testing.T) {
	notFound := config.NewConfigNotFoundError("okd4.yaml")
	notFound.Underlying = errors.New("stat failed")

	dnfFailed := fmt.Errorf("apply failed: %w",
		compiler.NewApplyFailedError("packages:install:nginx",
			errors.New(`command "sudo -n dnf install -y nginx" exited with code 1: Error: Unable to find a match: nginx`)).
			WithProvider("packages"))

	tests := []struct {
		name     string
		err      error
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "plain error",
			err:      errors.New("boom"),
			contains: []string{"boom"},
		},
		{
			name:     "user error with suggestion",
			err:      notFound,
			contains: []string{"inventory file not found: okd4.yaml", "Suggestion:"},
			excludes: []string{"Technical details"},
		},
		{
			name:     "user error verbose",
			err:      notFound,
			verbose:  true,
			contains: []string{"Technical details: stat failed"},
		},
		{
			name: "wrapped user error",
			err:  fmt.Errorf("load: %w", config.NewUnknownStepError("dhcp", config.DefaultSteps)),
			contains: []string{"unknown step 'dhcp'", "Known steps: package-repos"},
		},
		{
			name: "error list",
			err: func() error {
				l := config.NewErrorList()
				l.AddValidation("cluster.name", "required", "")
				l.AddValidation("host.port", "port 0 out of range", "")
				return l
			}(),
			contains: []string{"Found 2 error(s)", "cluster.name", "host.port"},
		},
		{
			name:     "step error keeps the cause",
			err:      dnfFailed,
			contains: []string{"exited with code 1: Error: Unable to find a match: nginx", "Suggestion: Fix the cause"},
			excludes: []string{"[APPLY_FAILED]"},
		},
		{
			name:     "step error verbose",
			err:      compiler.NewApplyFailedError("firewall:service:http", errors.New("exit 252")),
			verbose:  true,
			contains: []string{"[APPLY_FAILED]", "Cause: exit 252"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbose = tt.verbose
			t.Cleanup(func() { verbose = false })

			got := formatError(tt.err)
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, got, e)
			}
		})
	}
}

func TestPrintErrorTo(t *testing.T) {
	var buf bytes.Buffer
	printErrorTo(&buf, errors.New("connect to host: connection refused"))
	assert.Equal(t, "Error: connect to host: connection refused\n", buf.String())
}

func TestRootCmd_LongListsDefaultSequence(t *testing.T) {
	t.Parallel()

	_, list, found := strings.Cut(rootCmd.Long, "fixed order:")
	require.True(t, found)

	var stages []string
	for _, s := range strings.Split(list, "→") {
		stages = append(stages, strings.TrimSpace(s))
	}
	assert.Equal(t, config.DefaultSteps, stages)
}

package okd_test

import (
	"testing"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/provider/okd"
	"github.com/felixgeelhaar/okd4prov/internal/testutil"
	"github.com/felixgeelhaar/okd4prov/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installConfigCheck = "test -f " + installConfigPath

func TestGenerateStep_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		bootstrap     int
		installer     int
		installConfig int
		want          compiler.StepStatus
	}{
		{"already generated", 0, 1, 1, compiler.StatusSatisfied},
		{"installer missing", 1, 1, 0, compiler.StatusSkipped},
		{"install-config missing", 1, 0, 1, compiler.StatusSkipped},
		{"ready", 1, 0, 0, compiler.StatusNeedsApply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sh := mocks.NewShell()
			sh.AddExit(bootstrapCheck, tt.bootstrap)
			sh.AddExit(testInstaller, tt.installer)
			sh.AddExit(installConfigCheck, tt.installConfig)

			status, err := okd.NewGenerateStep(configDir).Check(testutil.RunContext(sh, testutil.Fedora()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestGenerateStep_Apply(t *testing.T) {
	t.Parallel()

	manifests := "bin/openshift-install create manifests --dir " + configDir
	ignition := "bin/openshift-install create ignition-configs --dir " + configDir

	sh := mocks.NewShell()
	sh.AddOK(manifests)
	sh.AddOK(ignition)

	steps, err := okd.NewIgnitionProvider().Compile(testutil.CompileContext(testutil.Fedora(), nil))
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "ignition:create:"+configDir, steps[0].ID().String())

	require.NoError(t, steps[0].Apply(testutil.RunContext(sh, testutil.Fedora())))
	assert.Equal(t, []string{manifests, ignition}, sh.Commands())
}

func TestGenerateStep_ManifestsFail(t *testing.T) {
	t.Parallel()

	sh := mocks.NewShell()
	sh.AddResult("bin/openshift-install create manifests --dir "+configDir, portsExit(1, "invalid install config"))

	err := okd.NewGenerateStep(configDir).Apply(testutil.RunContext(sh, testutil.Fedora()))
	require.Error(t, err)
	assert.Len(t, sh.Calls(), 1, "ignition-configs is not attempted")
}

func TestPublishProvider_Compile(t *testing.T) {
	t.Parallel()

	steps, err := okd.NewPublishProvider().Compile(testutil.CompileContext(testutil.Fedora(), nil))
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "publish-ignition:copy:bootstrap.ign", steps[0].ID().String())
	assert.Equal(t, "publish-ignition:copy:worker.ign", steps[2].ID().String())
}

func TestPublishStep_Check(t *testing.T) {
	t.Parallel()

	const (
		src  = configDir + "/master.ign"
		dest = "/usr/share/nginx/html/ignition/master.ign"
	)

	tests := []struct {
		name string
		src  string
		dest string
		want compiler.StepStatus
	}{
		{"not generated", "", "", compiler.StatusSkipped},
		{"not published", "aaaa", "", compiler.StatusNeedsApply},
		{"stale", "aaaa", "bbbb", compiler.StatusNeedsApply},
		{"published", "aaaa", "aaaa", compiler.StatusSatisfied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sh := mocks.NewShell()
			for p, sum := range map[string]string{src: tt.src, dest: tt.dest} {
				if sum == "" {
					sh.AddExit("md5sum "+p, 1)
				} else {
					sh.AddOutput("md5sum "+p, sum+"  "+p)
				}
			}

			status, err := okd.NewPublishStep(src, dest).Check(testutil.RunContext(sh, testutil.Fedora()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestPublishStep_Apply(t *testing.T) {
	t.Parallel()

	sh := mocks.NewShell()
	sh.SetFallback(portsExit(0, ""))

	step := okd.NewPublishStep(configDir+"/worker.ign", "/usr/share/nginx/html/ignition/worker.ign")
	require.NoError(t, step.Apply(testutil.RunContext(sh, testutil.Fedora())))
	assert.Equal(t, []string{
		"sudo -n cp " + configDir + "/worker.ign /usr/share/nginx/html/ignition/worker.ign",
		"sudo -n chmod 0644 /usr/share/nginx/html/ignition/worker.ign",
	}, sh.Commands())
}

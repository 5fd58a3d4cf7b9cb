package nginx_test

import (
	"testing"

	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/felixgeelhaar/okd4prov/internal/provider/nginx"
	"github.com/felixgeelhaar/okd4prov/internal/testutil"
	"github.com/felixgeelhaar/okd4prov/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	grepFCOS     = "grep -q -F -e 'location /fcos/' /etc/nginx/nginx.conf"
	grepIgnition = "grep -q -F -e 'location /ignition/' /etc/nginx/nginx.conf"
)

func compileStep(t *testing.T, d host.Descriptor) compiler.Step {
	t.Helper()

	steps, err := nginx.NewProvider().Compile(testutil.CompileContext(d, nil))
	require.NoError(t, err)
	require.Len(t, steps, 1)
	return steps[0]
}

func TestProvider_Gating(t *testing.T) {
	t.Parallel()

	steps, err := nginx.NewProvider().Compile(testutil.CompileContext(testutil.Host(host.DistroOther, 1), nil))
	require.NoError(t, err)
	assert.Empty(t, steps)

	step := compileStep(t, testutil.Host(host.DistroCentOSLegacy, 7))
	assert.Equal(t, "nginx:config:/etc/nginx/nginx.conf", step.ID().String())
}

func TestConfig_BothLocationsPresent(t *testing.T) {
	t.Parallel()

	sh := mocks.NewShell()
	sh.AddExit(grepFCOS, 0)
	sh.AddExit(grepIgnition, 0)

	status, err := compileStep(t, testutil.Fedora()).Check(testutil.RunContext(sh, testutil.Fedora()))
	require.NoError(t, err)
	assert.Equal(t, compiler.StatusSatisfied, status)
	testutil.AssertNoChanges(t, sh)
	assert.Len(t, sh.Calls(), 2, "no checksum comparison when both locations exist")
}

func TestConfig_LocationMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fcos     int
		ignition int
	}{
		{"fcos missing", 1, 0},
		{"ignition missing", 0, 1},
		{"file missing", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sh := mocks.NewShell()
			sh.AddExit(grepFCOS, tt.fcos)
			sh.AddExit(grepIgnition, tt.ignition)

			status, err := compileStep(t, testutil.Fedora()).Check(testutil.RunContext(sh, testutil.Fedora()))
			require.NoError(t, err)
			assert.Equal(t, compiler.StatusNeedsApply, status)
		})
	}
}

func TestConfig_Apply(t *testing.T) {
	t.Parallel()

	sh := mocks.NewShell()
	sh.SetFallback(ports.CommandResult{})

	require.NoError(t, compileStep(t, testutil.Fedora()).Apply(testutil.RunContext(sh, testutil.Fedora())))

	calls := sh.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "sudo -n tee /etc/nginx/nginx.conf >/dev/null", calls[0].Command)
	assert.Contains(t, calls[0].Stdin, "listen       8080;")
	assert.Contains(t, calls[0].Stdin, "location /ignition/")
	assert.Equal(t, "sudo -n chmod 0644 /etc/nginx/nginx.conf", calls[1].Command)
}

func TestListenPort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 8080, nginx.ListenPort(""))
	assert.Equal(t, 8080, nginx.ListenPort("http://192.168.1.10"))
	assert.Equal(t, 9000, nginx.ListenPort("http://192.168.1.10:9000"))
	assert.Equal(t, 8080, nginx.ListenPort("http://[::1"))
}

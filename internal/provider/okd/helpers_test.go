package okd_test

import (
	"testing"

	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/felixgeelhaar/okd4prov/internal/testutil"
	"github.com/felixgeelhaar/okd4prov/internal/testutil/mocks"
)

const (
	testInstaller  = "test -f bin/openshift-install"
	printStream    = "bin/openshift-install coreos print-stream-json"
	kernelFile     = "fedora-coreos-39.20240210.3.0-live-kernel-x86_64"
	initramfsFile  = "fedora-coreos-39.20240210.3.0-live-initramfs.x86_64.img"
	rootfsFile     = "fedora-coreos-39.20240210.3.0-live-rootfs.x86_64.img"
	streamBaseURL  = "https://builds.coreos.fedoraproject.org/prod/streams/stable/builds/39.20240210.3.0/x86_64/"
	configDir      = "okd4.example.com-config"
	bootstrapCheck = "test -f okd4.example.com-config/bootstrap.ign"
)

// withInstaller makes bin/openshift-install present and answer
// print-stream-json with the stream fixture.
func withInstaller(t *testing.T, sh *mocks.Shell) {
	t.Helper()
	sh.AddExit(testInstaller, 0)
	sh.AddOutput(printStream, string(testutil.LoadFixture(t, testutil.StreamJSON)))
}

func portsExit(code int, stderr string) ports.CommandResult {
	return ports.CommandResult{ExitCode: code, Stderr: stderr}
}

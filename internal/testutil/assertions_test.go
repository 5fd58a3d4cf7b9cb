package testutil

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/okd4prov/internal/ports"
	"github.com/felixgeelhaar/okd4prov/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
)

func TestAssertRan(t *testing.T) {
	t.Parallel()

	sh := mocks.NewShell()
	sh.SetFallback(okResult)
	for _, c := range []string{"rpm -q nginx", "sudo -n dnf install -y nginx", "rpm -q haproxy"} {
		_, _ = sh.Run(context.Background(), c)
	}

	AssertRan(t, sh, "rpm -q nginx", "rpm -q haproxy")
	AssertNotRan(t, sh, "sudo -n dnf install -y haproxy")

	rec := &recordingT{TB: t}
	AssertRan(rec, sh, "rpm -q haproxy", "rpm -q nginx")
	assert.True(t, rec.failed, "out of order commands fail")
}

func TestAssertNoChanges(t *testing.T) {
	t.Parallel()

	sh := mocks.NewShell()
	sh.SetFallback(okResult)
	_, _ = sh.Run(context.Background(), "test -d bin")
	_, _ = sh.Run(context.Background(), "rpm -q nginx")

	AssertNoChanges(t, sh)
}

var okResult = ports.CommandResult{}

// recordingT records failures instead of failing the enclosing test.
type recordingT struct {
	testing.TB
	failed bool
}

func (r *recordingT) Helper() {}

func (r *recordingT) Errorf(string, ...interface{}) { r.failed = true }

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalInventory = `
host:
  hostname: 192.168.1.10
  user: okd
cluster:
  name: okd4
  domain: example.com
`

func writeInventory(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load_AppliesDefaults(t *testing.T) {
	t.Parallel()

	path := writeInventory(t, "okd4.yaml", minimalInventory)

	inv, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportSSH, inv.Host.Transport)
	assert.Equal(t, 22, inv.Host.Port)
	assert.True(t, inv.Host.UseSudo())
	assert.Equal(t, "192.168.1.10:22", inv.Host.Address())
	assert.Equal(t, DefaultRootfsCheckDir, inv.PXE.RootfsCheckDir)
	assert.Equal(t, "http://192.168.1.10:8080", inv.PXE.HTTPBase)
	assert.Equal(t, DefaultFakePullSecret, inv.Cluster.PullSecret)
	assert.Equal(t, DefaultSteps, inv.Steps)
	assert.Equal(t, DefaultPackages, inv.Packages)
	assert.Equal(t, "okd4.example.com", inv.Cluster.FQDN())
}

func TestLoader_Load_FileNotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, &UserError{Code: ErrCodeConfigNotFound})
}

func TestLoader_Load_UnknownKey_ReturnsParseError(t *testing.T) {
	t.Parallel()

	path := writeInventory(t, "okd4.yaml", minimalInventory+"\nclustr:\n  name: typo\n")

	_, err := NewLoader().Load(path)
	require.Error(t, err)
	ue := GetUserError(err)
	require.NotNil(t, ue)
	assert.Equal(t, ErrCodeConfigParse, ue.Code)
}

func TestLoader_Load_TOML(t *testing.T) {
	t.Parallel()

	path := writeInventory(t, "okd4.toml", `
steps = ["packages", "directories"]

[host]
transport = "local"
sudo = false

[cluster]
name = "okd4"
domain = "lab.example.com"

[release]
tag = "4.15.0-0.okd-2024-03-10-010116"
`)

	inv, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportLocal, inv.Host.Transport)
	assert.False(t, inv.Host.UseSudo())
	assert.Equal(t, "4.15.0-0.okd-2024-03-10-010116", inv.Release.Tag)
	assert.Equal(t, []string{"packages", "directories"}, inv.Steps)
}

func TestLoader_Load_TOMLSyntaxError(t *testing.T) {
	t.Parallel()

	path := writeInventory(t, "okd4.toml", "[cluster]\nname = \n")

	_, err := NewLoader().Load(path)
	require.Error(t, err)
	ue := GetUserError(err)
	require.NotNil(t, ue)
	assert.Equal(t, ErrCodeConfigParse, ue.Code)
	assert.Contains(t, ue.Context, "(line ")
}

func TestLoader_Load_ValidationErrors(t *testing.T) {
	t.Parallel()

	path := writeInventory(t, "okd4.yaml", `
host:
  transport: ssh
cluster:
  name: OKD4
steps: [packages, frobnicate]
`)

	_, err := NewLoader().Load(path)
	require.Error(t, err)

	var list *ErrorList
	require.ErrorAs(t, err, &list)
	fields := make([]string, 0, len(list.errors))
	for _, e := range list.errors {
		fields = append(fields, e.Context)
	}
	assert.Contains(t, fields, "host.hostname")
	assert.Contains(t, fields, "cluster.name")
	assert.Contains(t, fields, "cluster.domain")
	assert.Contains(t, fields, "steps[1]")
}

func TestLoader_Load_ReadsReferencedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pull-secret.json"), []byte(`{"auths":{}}`+"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id.pub"), []byte("ssh-ed25519 AAAAC3Nz okd@bastion\n"), 0o600))
	path := filepath.Join(dir, "okd4.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalInventory+`  pull_secret_file: pull-secret.json
  ssh_public_key_file: id.pub
`), 0o600))

	inv, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, `{"auths":{}}`, inv.Cluster.PullSecret)
	assert.Equal(t, "ssh-ed25519 AAAAC3Nz okd@bastion", inv.Cluster.SSHPublicKey)
}

func TestLoader_Load_MissingReferencedFile(t *testing.T) {
	t.Parallel()

	path := writeInventory(t, "okd4.yaml", minimalInventory+"  pull_secret_file: nope.json\n")

	_, err := NewLoader().Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, &UserError{Code: ErrCodeFileNotFound})
}

func TestLoader_expand_Home(t *testing.T) {
	t.Parallel()

	l := &Loader{homeDir: func() (string, error) { return "/home/okd", nil }}

	got, err := l.expand("~/.okd/pull-secret.json", "/etc/okd4prov")
	require.NoError(t, err)
	assert.Equal(t, "/home/okd/.okd/pull-secret.json", got)

	got, err = l.expand("pull-secret.json", "/etc/okd4prov")
	require.NoError(t, err)
	assert.Equal(t, "/etc/okd4prov/pull-secret.json", got)

	got, err = l.expand("/srv/pull-secret.json", "/etc/okd4prov")
	require.NoError(t, err)
	assert.Equal(t, "/srv/pull-secret.json", got)
}

func TestLoader_Load_EnvironmentFillsEmptyFields(t *testing.T) {
	t.Setenv("OKD4PROV_HOST", "10.0.0.5")
	t.Setenv("OKD4PROV_RELEASE_TAG", "v4.15.0")
	t.Setenv("OKD4PROV_CLUSTER_NAME", "ignored")

	path := writeInventory(t, "okd4.yaml", `
cluster:
  name: okd4
  domain: example.com
`)

	inv, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", inv.Host.Hostname)
	assert.Equal(t, "v4.15.0", inv.Release.Tag)
	assert.Equal(t, "okd4", inv.Cluster.Name, "file values win over the environment")
}

func TestLoader_Load_InvalidEnvironment(t *testing.T) {
	t.Setenv("OKD4PROV_PORT", "twenty-two")

	path := writeInventory(t, "okd4.yaml", minimalInventory)

	_, err := NewLoader().Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, &UserError{Code: ErrCodeEnvInvalid})
}

func TestLoader_LoadBytes(t *testing.T) {
	t.Parallel()

	inv, err := NewLoader().LoadBytes([]byte(minimalInventory), FormatYAML, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "okd", inv.Host.User)

	_, err = NewLoader().LoadBytes([]byte("host: ["), FormatYAML, t.TempDir())
	assert.ErrorIs(t, err, &UserError{Code: ErrCodeConfigParse})
}

func TestLoader_LoadBytes_LocalTransportRequiresHTTPBase(t *testing.T) {
	t.Parallel()

	local := `
host:
  transport: local
cluster:
  name: okd4
  domain: example.com
release:
  tag: 4.15.0-0.okd-2024-03-10-010116
`

	_, err := NewLoader().LoadBytes([]byte(local), FormatYAML, t.TempDir())
	var list *ErrorList
	require.ErrorAs(t, err, &list)
	require.Len(t, list.errors, 1)
	assert.Equal(t, "pxe.http_base", list.errors[0].Context)

	inv, err := NewLoader().LoadBytes([]byte(local+"pxe:\n  http_base: http://10.0.0.5:8080\n"), FormatYAML, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080", inv.PXE.HTTPBase)
}

func TestParse_EmptyDocument(t *testing.T) {
	t.Parallel()

	inv, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, inv.Cluster.Name)
}

func TestFormatFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatTOML, FormatFor("okd4.toml"))
	assert.Equal(t, FormatTOML, FormatFor("/etc/OKD4.TOML"))
	assert.Equal(t, FormatYAML, FormatFor("okd4.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("okd4.yml"))
	assert.Equal(t, FormatYAML, FormatFor("okd4"))
}

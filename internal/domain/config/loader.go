package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is an inventory file encoding.
type Format string

// Supported inventory encodings.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from the file extension. Anything that is not
// .toml is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes an inventory document. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Inventory, error) {
	inv := &Inventory{}

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(inv); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(inv); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	return inv, nil
}

// Loader reads an inventory, overlays OKD4PROV_* variables, resolves
// referenced files, applies defaults and validates the result.
type Loader struct {
	readFile func(string) ([]byte, error)
	homeDir  func() (string, error)
}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{
		readFile: os.ReadFile,
		homeDir:  os.UserHomeDir,
	}
}

// Load loads the inventory at path.
func (l *Loader) Load(path string) (*Inventory, error) {
	data, err := l.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	inv, err := Parse(data, FormatFor(path))
	if err != nil {
		if FormatFor(path) == FormatTOML {
			return nil, newTOMLParseError(path, err)
		}
		return nil, NewYAMLParseError(path, err)
	}

	return l.finish(inv, filepath.Dir(path))
}

// LoadBytes loads an inventory held in memory. Relative file references are
// resolved against baseDir.
func (l *Loader) LoadBytes(data []byte, format Format, baseDir string) (*Inventory, error) {
	inv, err := Parse(data, format)
	if err != nil {
		return nil, NewConfigParseError("<inline>", err)
	}
	return l.finish(inv, baseDir)
}

func (l *Loader) finish(inv *Inventory, baseDir string) (*Inventory, error) {
	if err := PopulateFromEnv(inv); err != nil {
		return nil, NewEnvOverlayError(err)
	}

	if err := l.resolveFiles(inv, baseDir); err != nil {
		return nil, err
	}

	inv.ApplyDefaults()

	list := NewErrorList()
	for _, e := range NewValidator().Validate(inv) {
		list.AddValidation(e.Field, e.Message, e.Suggestion)
	}
	if err := list.AsError(); err != nil {
		return nil, err
	}

	return inv, nil
}

// resolveFiles reads pull_secret_file and ssh_public_key_file into their
// inline counterparts. Inline values win.
func (l *Loader) resolveFiles(inv *Inventory, baseDir string) error {
	c := &inv.Cluster

	if c.PullSecret == "" && c.PullSecretFile != "" {
		v, err := l.readReferenced("cluster.pull_secret_file", c.PullSecretFile, baseDir)
		if err != nil {
			return err
		}
		c.PullSecret = v
	}

	if c.SSHPublicKey == "" && c.SSHPublicKeyFile != "" {
		v, err := l.readReferenced("cluster.ssh_public_key_file", c.SSHPublicKeyFile, baseDir)
		if err != nil {
			return err
		}
		c.SSHPublicKey = v
	}

	return nil
}

func (l *Loader) readReferenced(field, path, baseDir string) (string, error) {
	resolved, err := l.expand(path, baseDir)
	if err != nil {
		return "", err
	}
	data, err := l.readFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", NewFileNotFoundError(field, resolved)
		}
		return "", fmt.Errorf("read %s: %w", field, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// expand resolves ~/ against the home directory and relative paths against
// baseDir.
func (l *Loader) expand(path, baseDir string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := l.homeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(baseDir, path), nil
}

// newTOMLParseError reports the row of a go-toml decode error when it has one.
func newTOMLParseError(path string, err error) *UserError {
	ue := NewConfigParseError(path, err)
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, _ := derr.Position()
		ue = ue.WithContext(fmt.Sprintf("%s (line %d)", path, row))
	}
	return ue
}

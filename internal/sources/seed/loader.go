package seed

import (
	"fmt"
	"regexp"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader handles loading and parsing of seed files
type Loader struct {
	fs       afero.Fs
	filePath string
}

// NewLoader creates a new seed loader
func NewLoader(fs afero.Fs, filePath string) *Loader {
	return &Loader{
		fs:       fs,
		filePath: filePath,
	}
}

// Load reads and parses the seed file
func (l *Loader) Load() (SeedFile, error) {
	data, err := afero.ReadFile(l.fs, l.filePath)
	if err != nil {
		return SeedFile{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	// Template variables ({{VAR}}) are left unresolved; entries that end up
	// empty are skipped by the mapper.
	data = templateVar.ReplaceAll(data, []byte(`""`))

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return SeedFile{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	return file, nil
}

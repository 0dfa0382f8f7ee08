package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/sop-infra/sopctl/internal/models"
	"gopkg.in/yaml.v3"
)

var YAMLExtensions = []string{".yaml", ".yml"}

// Parse reads every YAML file under path and merges them into one seed.
// Files are visited in lexical order.
func Parse(path string) (*models.Seed, error) {
	seed := new(models.Seed)

	err := filepath.WalkDir(path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || !isYAML(path) {
			return nil
		}

		part, err := ParseFile(path)
		if err != nil {
			return err
		}

		seed.Merge(part)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk through directory: %w", err)
	}

	return seed, nil
}

func ParseFile(path string) (*models.Seed, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	seed := new(models.Seed)
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	if err := decoder.Decode(seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return seed, nil
}

func isYAML(path string) bool {
	return slices.Contains(YAMLExtensions, filepath.Ext(path))
}

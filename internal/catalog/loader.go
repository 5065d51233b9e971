package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "embed"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed data/dataitems.yaml
var baseCatalogYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded standard table only.
// It panics if the embedded table is invalid, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		var v *Validator
		v, defaultErr = NewValidator()
		if defaultErr != nil {
			return
		}
		var base catalogFile
		base, defaultErr = parseCatalog(v, baseCatalogYAML)
		if defaultErr == nil {
			defaultCatalog = newCatalog(base)
		}
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("embedded catalog: %v", defaultErr))
	}
	return defaultCatalog
}

// Loader builds catalogs from the embedded table plus extension files found
// in its search paths.
type Loader struct {
	validator   *Validator
	searchPaths []string
	logger      *zap.Logger
}

func NewLoader(searchPaths []string, logger *zap.Logger) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
		logger:      logger,
	}, nil
}

// Load returns the embedded catalog extended by every *.yaml file in the
// search paths. Files are applied in path order, then by name; a later row for
// an existing type replaces it in place.
func (l *Loader) Load() (*Catalog, error) {
	base, err := parseCatalog(l.validator, baseCatalogYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded catalog: %w", err)
	}
	files := []catalogFile{base}

	for _, searchPath := range l.searchPaths {
		matches, err := filepath.Glob(filepath.Join(searchPath, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("invalid search path %s: %w", searchPath, err)
		}
		sort.Strings(matches)

		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
			}
			ext, err := parseCatalog(l.validator, data)
			if err != nil {
				return nil, fmt.Errorf("validation failed for %s: %w", path, err)
			}
			l.logger.Info("Loaded catalog extension",
				zap.String("path", path),
				zap.Int("types", len(ext.Types)))
			files = append(files, ext)
		}
	}

	c := newCatalog(files...)
	l.logger.Info("DataItem catalog ready",
		zap.String("version", c.Version()),
		zap.Int("types", c.Len()))
	return c, nil
}

func parseCatalog(v *Validator, data []byte) (catalogFile, error) {
	if err := v.ValidateCatalog(data); err != nil {
		return catalogFile{}, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return catalogFile{}, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return f, nil
}

package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"golang.org/x/tools/go/packages"
)

var errNoModule = errors.New("package is not part of a module")

// SchemaGenerator generates a JSON schema for a configuration type, with
// descriptions taken from the Go doc comments of the given packages.
// Uses [github.com/invopop/jsonschema].
type SchemaGenerator struct {
	reflector *jsonschema.Reflector
	object    any
	packages  []string
}

// NewSchemaGenerator creates a new [SchemaGenerator] for obj. The packages
// are import paths whose comments are used as schema descriptions.
func NewSchemaGenerator(obj any, packages ...string) *SchemaGenerator {
	return &SchemaGenerator{
		reflector: &jsonschema.Reflector{
			// Config sections from different packages share type names, so
			// every type is inlined.
			DoNotReference: true,
		},
		object:   obj,
		packages: packages,
	}
}

// Generate returns the indented JSON schema.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	err := g.addComments()
	if err != nil {
		return nil, err
	}

	jss := g.reflector.Reflect(g.object)

	data, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}

func (g *SchemaGenerator) addComments() error {
	if len(g.packages) == 0 {
		return nil
	}

	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedModule,
	}, g.packages...)
	if err != nil {
		return fmt.Errorf("load packages: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	// Comments are keyed by the module path joined with the walked directory,
	// so directories are walked relative to each module root.
	defer func() {
		_ = os.Chdir(wd)
	}()

	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return fmt.Errorf("load package %s: %w", pkg.PkgPath, pkg.Errors[0])
		}
		if pkg.Module == nil || len(pkg.GoFiles) == 0 {
			return fmt.Errorf("%s: %w", pkg.PkgPath, errNoModule)
		}

		rel, err := filepath.Rel(pkg.Module.Dir, filepath.Dir(pkg.GoFiles[0]))
		if err != nil {
			return fmt.Errorf("relative package path: %w", err)
		}

		err = os.Chdir(pkg.Module.Dir)
		if err != nil {
			return fmt.Errorf("change directory: %w", err)
		}

		err = g.reflector.AddGoComments(pkg.Module.Path, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("add go comments for %s: %w", pkg.PkgPath, err)
		}
	}

	return nil
}

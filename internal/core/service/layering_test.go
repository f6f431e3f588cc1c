package service

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// The core packages may only depend on each other and on third-party
// libraries, never on the adapters wrapped around them.
func TestCoreImports_NoAdapterPackages(t *testing.T) {
	core, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("resolve core dir: %v", err)
	}

	fset := token.NewFileSet()
	err = filepath.WalkDir(core, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range f.Imports {
			p, _ := strconv.Unquote(imp.Path.Value)
			if strings.Contains(p, "/internal/api") || strings.Contains(p, "/internal/infrastructure") {
				t.Errorf("%s imports %s", filepath.Base(path), p)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk core: %v", err)
	}
}

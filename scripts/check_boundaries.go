package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "pollchain"

// layerRule lists what files under contexts/<ctx>/<module>/<layer> may import.
// Own lists paths relative to the module root; Libraries lists third-party
// prefixes. Standard library imports are always allowed.
type layerRule struct {
	Own            []string
	Shared         bool
	Libraries      []string
	ForbidAdapters bool
}

var layerRules = map[string]layerRule{
	"domain": {
		Own: []string{"domain"},
		Libraries: []string{
			"github.com/ethereum/go-ethereum/common",
			"github.com/ethereum/go-ethereum/crypto",
		},
		ForbidAdapters: true,
	},
	"ports": {
		Own:            []string{"domain"},
		Shared:         true,
		ForbidAdapters: true,
	},
	"application": {
		Own:            []string{"application", "domain", "ports"},
		Shared:         true,
		Libraries:      []string{"go.opentelemetry.io/otel"},
		ForbidAdapters: true,
	},
	"transport": {
		Own:            []string{"transport", "domain", "application/dispatch"},
		ForbidAdapters: true,
	},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(path), "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		modulePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, filepath.ToSlash(path), parts[3], modulePrefix)...)
		return nil
	})
	return violations
}

func validateFile(path string, displayPath string, layer string, modulePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: displayPath, Line: 1, Rule: "file must parse"}}
	}

	rule, ruled := layerRules[layer]
	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		report := func(reason string) {
			violations = append(violations, violation{
				File:   displayPath,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   reason,
			})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, modulePrefix) {
			report("cross-module imports are forbidden")
		}
		if !ruled {
			continue
		}
		if rule.ForbidAdapters && strings.Contains(importPath, "/adapters/") {
			report(layer + " must not import adapters")
		}
		if isRuntimeInfrastructure(importPath) {
			report(layer + " must not import runtime infrastructure")
		}
		if !isStdlib(importPath) && !rule.allows(importPath, modulePrefix) {
			report(layer + " import is outside explicit allowlist")
		}
	}
	return violations
}

func (r layerRule) allows(importPath string, modulePrefix string) bool {
	for _, own := range r.Own {
		if hasPrefix(importPath, modulePrefix+"/"+own) {
			return true
		}
	}
	if r.Shared && hasPrefix(importPath, modulePath+"/internal/shared") {
		return true
	}
	for _, lib := range r.Libraries {
		if hasPrefix(importPath, lib) {
			return true
		}
	}
	return false
}

// internal/shared holds the event envelope every context agrees on and is
// not runtime infrastructure.
func isRuntimeInfrastructure(importPath string) bool {
	if hasPrefix(importPath, modulePath+"/internal/shared") {
		return false
	}
	return hasPrefix(importPath, modulePath+"/internal") || hasPrefix(importPath, modulePath+"/cmd")
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

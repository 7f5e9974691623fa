// Package lookml transforms LookML dashboard documents: cleaning the output
// of the Looker API, rewriting model references, and generating tenant
// dashboards that extend a base project.
package lookml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoName indicates no "- dashboard: <name>" line was found.
var ErrNoName = errors.New("dashboard name not found in LookML")

// DefaultModelTarget is the manifest constant substituted for hardcoded
// model names in the base project.
const DefaultModelTarget = "@{model_name}"

var (
	nameRe = regexp.MustCompile(`(?m)^-\s+dashboard:\s+(\S+)`)
	// Dashboard-level keys only (2-4 space indent); keys inside elements
	// are indented deeper and must survive.
	volatileRe  = regexp.MustCompile(`^\s{2,4}(id|slug|preferred_slug)\s*:`)
	modelRe     = regexp.MustCompile(`(model:\s*)(?:"[^"]*"|[@\w{}]+)`)
	extendsFlow = regexp.MustCompile(`extends:\s*\[(\w+)\]`)
	extendsBloc = regexp.MustCompile(`extends:\s*\n\s+-\s+(\w+)`)
)

// ExtractName returns the dashboard name declared in the LookML document.
func ExtractName(lookml string) (string, error) {
	m := nameRe.FindStringSubmatch(lookml)
	if m == nil {
		return "", ErrNoName
	}
	return m[1], nil
}

// StripVolatileKeys removes dashboard-level id, slug, and preferred_slug
// lines. Looker then keeps the previous values on import.
func StripVolatileKeys(lookml string) string {
	lines := strings.Split(lookml, "\n")
	filtered := lines[:0]
	for _, line := range lines {
		if volatileRe.MatchString(line) {
			continue
		}
		filtered = append(filtered, line)
	}
	return strings.Join(filtered, "\n")
}

// ReplaceModel rewrites every model reference (quoted, bare, or @{} constant)
// with the quoted target.
func ReplaceModel(lookml, target string) string {
	return modelRe.ReplaceAllString(lookml, `${1}"`+target+`"`)
}

// FindExistingFile locates the file holding the named dashboard inside dir:
// first by the conventional file name, then by scanning the dashboard
// declarations of every *.dashboard.lookml file. Returns "" when absent.
func FindExistingFile(dir, name string) string {
	exact := filepath.Join(dir, name+".dashboard.lookml")
	if _, err := os.Stat(exact); err == nil {
		return exact
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	declRe := regexp.MustCompile(fmt.Sprintf(`(?m)^-?\s*dashboard:\s+%s\s*$`, regexp.QuoteMeta(name)))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dashboard.lookml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if declRe.Match(content) {
			return path
		}
	}
	return ""
}

// DetectExtends returns the base dashboard an existing tenant file extends,
// handling both flow ("extends: [x]") and block style. Returns "" when the
// file declares no extends.
func DetectExtends(content string) string {
	if m := extendsFlow.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	if m := extendsBloc.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}

package lookml

import "regexp"

// Manifest carries the fields the tenant pipeline reads from a tenant's
// manifest.lkml: where the base project lives, which ref it is pinned to,
// and the tenant's model name constant.
type Manifest struct {
	BaseURL   string
	BaseOwner string
	BaseRepo  string
	BaseRef   string
	ModelName string
}

var (
	manifestURLRe   = regexp.MustCompile(`url:\s*"([^"]+)"`)
	manifestGHRe    = regexp.MustCompile(`github\.com/([^/]+)/([^/.]+)`)
	manifestRefRe   = regexp.MustCompile(`ref:\s*"([^"]+)"`)
	manifestModelRe = regexp.MustCompile(`(?s)override_constant:\s*model_name\s*\{[^}]*value:\s*"([^"]+)"`)
)

// ParseManifest extracts base project coordinates from manifest.lkml
// contents. Manifests are LookML, not YAML, so this matches the few fields
// of interest rather than parsing the full grammar. Missing fields stay
// empty; callers apply their own fallbacks.
func ParseManifest(src string) Manifest {
	var m Manifest
	if match := manifestURLRe.FindStringSubmatch(src); match != nil {
		m.BaseURL = match[1]
		if gh := manifestGHRe.FindStringSubmatch(m.BaseURL); gh != nil {
			m.BaseOwner = gh[1]
			m.BaseRepo = gh[2]
		}
	}
	if match := manifestRefRe.FindStringSubmatch(src); match != nil {
		m.BaseRef = match[1]
	}
	if match := manifestModelRe.FindStringSubmatch(src); match != nil {
		m.ModelName = match[1]
	}
	return m
}

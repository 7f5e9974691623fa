package lookml

import (
	"errors"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Dashboard is a parsed dashboard LookML document. The underlying yaml node
// tree is kept so rendering preserves key order; diffing works on decoded
// values.
type Dashboard struct {
	node *yaml.Node
}

// ParseDashboard decodes a dashboard LookML document (dashboards are YAML).
// Documents wrap the dashboard mapping in a single-element sequence; bare
// mappings are accepted too.
func ParseDashboard(lookml string) (*Dashboard, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(lookml), &doc); err != nil {
		return nil, fmt.Errorf("parse dashboard yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty dashboard document")
	}
	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		if len(root.Content) == 0 {
			return nil, errors.New("empty dashboard document")
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("dashboard document is not a mapping")
	}
	return &Dashboard{node: root}, nil
}

// Name returns the dashboard identifier.
func (d *Dashboard) Name() string {
	return d.scalar("dashboard")
}

// Title returns the dashboard title, or "" when absent.
func (d *Dashboard) Title() string {
	return d.scalar("title")
}

// Elements returns the element nodes, in document order.
func (d *Dashboard) Elements() []*yaml.Node {
	return d.sequence("elements")
}

// Filters returns the filter nodes, in document order.
func (d *Dashboard) Filters() []*yaml.Node {
	return d.sequence("filters")
}

func (d *Dashboard) scalar(key string) string {
	if v := mappingValue(d.node, key); v != nil && v.Kind == yaml.ScalarNode {
		return v.Value
	}
	return ""
}

func (d *Dashboard) sequence(key string) []*yaml.Node {
	if v := mappingValue(d.node, key); v != nil && v.Kind == yaml.SequenceNode {
		return v.Content
	}
	return nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// noisyDefaults are fields the Looker API fills in with default values that
// the hand-written base files omit. They are dropped before comparison only
// when the value matches the default, so real overrides still count as
// changes. Nil entries match explicit nulls (unpinned row/col/size).
var noisyDefaults = map[string]any{
	"show_view_names":                       false,
	"show_comparison":                       false,
	"comparison_type":                       "value",
	"comparison_reverse_colors":             false,
	"show_comparison_label":                 true,
	"enable_conditional_formatting":         false,
	"conditional_formatting_include_totals": false,
	"conditional_formatting_include_nulls":  false,
	"defaults_version":                      1,
	"tab_name":                              "",
	"hidden":                                false,
	"transpose":                             false,
	"truncate_text":                         true,
	"hide_totals":                           false,
	"hide_row_totals":                       false,
	"size_to_fit":                           true,
	"row":                                   nil,
	"col":                                   nil,
	"width":                                 nil,
	"height":                                nil,
}

// normalizeNode decodes an element or filter node and strips volatile
// identifiers, the model reference when dropModel is set, and noisy API
// defaults, yielding a value suitable for equality comparison.
func normalizeNode(node *yaml.Node, dropModel bool) (map[string]any, error) {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode element: %w", err)
	}
	delete(m, "id")
	delete(m, "slug")
	delete(m, "preferred_slug")
	if dropModel {
		delete(m, "model")
	}
	for key, def := range noisyDefaults {
		if val, ok := m[key]; ok && reflect.DeepEqual(val, def) {
			delete(m, key)
		}
	}
	return m, nil
}

// DiffByName compares tenant entries against base entries of the same name
// and returns the tenant nodes that are new or modified. Entries equal to
// their base counterpart after normalization are inherited and excluded.
// The model reference is ignored during comparison: tenants always point at
// their own model.
func DiffByName(tenant, base []*yaml.Node) ([]*yaml.Node, error) {
	baseByName := make(map[string]map[string]any, len(base))
	for _, node := range base {
		norm, err := normalizeNode(node, true)
		if err != nil {
			return nil, err
		}
		if name, ok := norm["name"].(string); ok && name != "" {
			baseByName[name] = norm
		}
	}

	var diff []*yaml.Node
	for _, node := range tenant {
		norm, err := normalizeNode(node, true)
		if err != nil {
			return nil, err
		}
		name, _ := norm["name"].(string)
		baseNorm, exists := baseByName[name]
		if !exists || !reflect.DeepEqual(norm, baseNorm) {
			diff = append(diff, node)
		}
	}
	return diff, nil
}

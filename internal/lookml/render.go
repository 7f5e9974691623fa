package lookml

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// flowKeys lists the dashboard fields conventionally written inline in LookML
// ("extends: [base]", "fields: [a, b]").
var flowKeys = map[string]bool{
	"extends":            true,
	"fields":             true,
	"sorts":              true,
	"listen":             true,
	"listens_to_filters": true,
}

// RenderExtends emits a tenant dashboard that extends a base dashboard,
// carrying only the given (new or modified) elements and filters. The
// output starts with a YAML document marker and keeps the inline style for
// the conventional flow fields.
func RenderExtends(name, title, baseName string, elements, filters []*yaml.Node) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(root, "dashboard", scalarNode(name))
	appendPair(root, "title", scalarNode(title))
	appendPair(root, "extends", &yaml.Node{
		Kind:    yaml.SequenceNode,
		Style:   yaml.FlowStyle,
		Content: []*yaml.Node{scalarNode(baseName)},
	})
	if len(elements) > 0 {
		appendPair(root, "elements", &yaml.Node{Kind: yaml.SequenceNode, Content: elements})
	}
	if len(filters) > 0 {
		appendPair(root, "filters", &yaml.Node{Kind: yaml.SequenceNode, Content: filters})
	}
	return renderDocument(root)
}

// RenderStandalone emits a complete dashboard document from a parsed
// dashboard, dropping the volatile dashboard-level identifiers so Looker
// keeps the previous values on import.
func RenderStandalone(d *Dashboard) (string, error) {
	node := dropMappingKeys(d.node, "id", "slug", "preferred_slug")
	return renderDocument(node)
}

func renderDocument(dashboard *yaml.Node) (string, error) {
	applyFlowStyle(dashboard)
	doc := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{dashboard}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode dashboard yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode dashboard yaml: %w", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "---\n") {
		out = "---\n" + out
	}
	return out, nil
}

// applyFlowStyle switches the conventional inline fields to flow style
// wherever they appear in the tree. Nodes nested inside a flow collection
// are emitted in flow automatically.
func applyFlowStyle(node *yaml.Node) {
	if node == nil {
		return
	}
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			value := node.Content[i+1]
			if flowKeys[node.Content[i].Value] && (value.Kind == yaml.SequenceNode || value.Kind == yaml.MappingNode) {
				value.Style = yaml.FlowStyle
			}
			applyFlowStyle(value)
		}
		return
	}
	for _, child := range node.Content {
		applyFlowStyle(child)
	}
}

// dropMappingKeys returns a shallow copy of a mapping node without the
// given top-level keys.
func dropMappingKeys(node *yaml.Node, keys ...string) *yaml.Node {
	skip := make(map[string]bool, len(keys))
	for _, key := range keys {
		skip[key] = true
	}
	out := *node
	out.Content = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		if skip[node.Content[i].Value] {
			continue
		}
		out.Content = append(out.Content, node.Content[i], node.Content[i+1])
	}
	return &out
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, scalarNode(key), value)
}

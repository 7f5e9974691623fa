package lookml

import (
	"strings"
	"testing"
)

const tenantLookML = `- dashboard: ventas
  title: Ventas Tenant
  elements:
  - name: pedidos
    title: Pedidos
    model: tenant_model
    explore: orders
    show_view_names: false
  - name: nuevos_clientes
    title: Nuevos Clientes
    model: tenant_model
    explore: customers
  - name: ingresos
    title: Ingresos (ajustado)
    model: tenant_model
    explore: revenue
  filters:
  - name: fecha
    title: Fecha
    type: field_filter
`

const baseLookML = `- dashboard: ventas
  title: Ventas
  elements:
  - name: pedidos
    title: Pedidos
    model: "@{model_name}"
    explore: orders
  - name: ingresos
    title: Ingresos
    model: "@{model_name}"
    explore: revenue
  filters:
  - name: fecha
    title: Fecha
    type: field_filter
`

func TestParseDashboardAccessors(t *testing.T) {
	d, err := ParseDashboard(tenantLookML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Name() != "ventas" {
		t.Fatalf("unexpected name %q", d.Name())
	}
	if d.Title() != "Ventas Tenant" {
		t.Fatalf("unexpected title %q", d.Title())
	}
	if len(d.Elements()) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(d.Elements()))
	}
	if len(d.Filters()) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(d.Filters()))
	}
}

func TestParseDashboardRejectsEmpty(t *testing.T) {
	if _, err := ParseDashboard(""); err == nil {
		t.Fatalf("expected error on empty document")
	}
	if _, err := ParseDashboard("[]"); err == nil {
		t.Fatalf("expected error on empty sequence")
	}
}

func TestDiffByName(t *testing.T) {
	tenant, err := ParseDashboard(tenantLookML)
	if err != nil {
		t.Fatalf("parse tenant: %v", err)
	}
	base, err := ParseDashboard(baseLookML)
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}

	diff, err := DiffByName(tenant.Elements(), base.Elements())
	if err != nil {
		t.Fatalf("diff elements: %v", err)
	}
	// pedidos is inherited: the model difference is ignored and
	// show_view_names:false is a noisy API default. nuevos_clientes is new,
	// ingresos has a changed title.
	if len(diff) != 2 {
		t.Fatalf("expected 2 diff elements, got %d", len(diff))
	}
	names := make([]string, 0, len(diff))
	for _, node := range diff {
		norm, err := normalizeNode(node, false)
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		names = append(names, norm["name"].(string))
	}
	got := strings.Join(names, ",")
	if got != "nuevos_clientes,ingresos" {
		t.Fatalf("unexpected diff set %q", got)
	}

	filterDiff, err := DiffByName(tenant.Filters(), base.Filters())
	if err != nil {
		t.Fatalf("diff filters: %v", err)
	}
	if len(filterDiff) != 0 {
		t.Fatalf("expected no filter diff, got %d", len(filterDiff))
	}
}

func TestNormalizeNodeKeepsRealOverrides(t *testing.T) {
	d, err := ParseDashboard("- dashboard: x\n  elements:\n  - name: a\n    id: 9\n    show_view_names: true\n    row: 4\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	norm, err := normalizeNode(d.Elements()[0], false)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, ok := norm["id"]; ok {
		t.Fatalf("expected id dropped")
	}
	if v, ok := norm["show_view_names"]; !ok || v != true {
		t.Fatalf("expected non-default show_view_names kept, got %v", norm)
	}
	if v, ok := norm["row"]; !ok || v != 4 {
		t.Fatalf("expected pinned row kept, got %v", norm)
	}
}

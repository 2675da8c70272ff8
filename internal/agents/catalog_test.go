package agents

import (
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	for _, name := range requiredPrompts {
		if _, err := cat.Get(name); err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
	}
	if _, err := cat.Get("nope"); err == nil {
		t.Fatalf("expected error for unknown prompt")
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "empty", yaml: "  ", wantErr: "catalog is empty"},
		{name: "bad yaml", yaml: "agents: [", wantErr: "decode catalog"},
		{name: "missing system", yaml: "agents:\n  - name: analyzer\n    user: x\n", wantErr: "system is required"},
		{name: "bad temperature", yaml: "agents:\n  - name: analyzer\n    temperature: 3\n    system: s\n", wantErr: "out of range"},
		{name: "bad template", yaml: "agents:\n  - name: analyzer\n    system: \"{{.Resume\"\n", wantErr: "parse system"},
		{name: "duplicate", yaml: "agents:\n  - name: analyzer\n    system: s\n  - name: analyzer\n    system: s\n", wantErr: "duplicate"},
		{name: "missing agents", yaml: "agents:\n  - name: analyzer\n    system: s\n", wantErr: "missing prompt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRenderMissingFieldFails(t *testing.T) {
	cat, err := ParseCatalog([]byte(strings.Join([]string{
		"agents:",
		"  - {name: analyzer, system: s, user: '{{.Nope}}'}",
		"  - {name: question_generator, system: s}",
		"  - {name: interviewer, system: s}",
		"  - {name: insight_extractor, system: s}",
		"  - {name: enhancer, system: s}",
		"  - {name: verifier, system: s}",
	}, "\n")))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	p, _ := cat.Get(NameAnalyzer)
	if _, err := p.renderUser(promptData{}); err == nil {
		t.Fatalf("expected render error for unknown field")
	}
}

// ABOUTME: Tests for the tool kind enum and the handler table
// ABOUTME: Ensures every kind has a unique name, a schema, and a handler
package mcp

import (
	"testing"
)

func TestHandlerTable_CoversEveryKind(t *testing.T) {
	h := &Handlers{}
	table := h.handlerTable()

	if len(table) != len(AllToolKinds()) {
		t.Errorf("handler table has %d entries, want %d", len(table), len(AllToolKinds()))
	}
	for _, k := range AllToolKinds() {
		if table[k] == nil {
			t.Errorf("no handler for %s", k)
		}
	}
}

func TestToolKind_NamesRoundTrip(t *testing.T) {
	seen := make(map[string]bool)
	for _, k := range AllToolKinds() {
		name := k.String()
		if name == "" {
			t.Fatalf("kind %d has no name", int(k))
		}
		if seen[name] {
			t.Errorf("duplicate tool name %q", name)
		}
		seen[name] = true

		got, ok := ParseToolKind(name)
		if !ok || got != k {
			t.Errorf("ParseToolKind(%q) = %v, %v; want %v, true", name, got, ok, k)
		}
	}

	if _, ok := ParseToolKind("get_joke"); ok {
		t.Error("ParseToolKind should reject unknown tools")
	}
	if s := ToolKind(99).String(); s != "ToolKind(99)" {
		t.Errorf("String() for out-of-range kind = %q", s)
	}
}

func TestDefinitions(t *testing.T) {
	required := map[ToolKind]string{
		ToolCreateEmbedding:   "text",
		ToolSaveDocument:      "content",
		ToolSearchSimilar:     "query",
		ToolSemanticSearch:    "query",
		ToolProcessTextChunks: "text",
		ToolProcessPDF:        "pdf_base64",
	}

	for _, k := range AllToolKinds() {
		t.Run(k.String(), func(t *testing.T) {
			def := definition(k)
			if def.Name != k.String() {
				t.Errorf("Name = %q, want %q", def.Name, k.String())
			}
			if def.Description == "" {
				t.Error("Description should not be empty")
			}
			if def.InputSchema.Type != "object" {
				t.Errorf("InputSchema.Type = %q, want object", def.InputSchema.Type)
			}

			want, ok := required[k]
			if !ok {
				if len(def.InputSchema.Required) != 0 {
					t.Errorf("Required = %v, want none", def.InputSchema.Required)
				}
				return
			}
			if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != want {
				t.Errorf("Required = %v, want [%s]", def.InputSchema.Required, want)
			}
			if _, ok := def.InputSchema.Properties[want]; !ok {
				t.Errorf("required property %q is not declared", want)
			}
		})
	}
}

func TestChunkingProperties_Defaults(t *testing.T) {
	def := definition(ToolProcessTextChunks)

	wantDefaults := map[string]int{
		"chunk_size":    1000,
		"chunk_overlap": 200,
		"max_workers":   4,
	}
	for key, want := range wantDefaults {
		prop, ok := def.InputSchema.Properties[key].(map[string]interface{})
		if !ok {
			t.Fatalf("property %q missing", key)
		}
		if prop["default"] != want {
			t.Errorf("%s default = %v, want %d", key, prop["default"], want)
		}
	}
}

package writer

import (
	"testing"

	"github.com/coregx/uatag/internal/parser"
)

func newCatalogWriter() *CatalogWriter {
	return NewCatalogWriter(CatalogConfig{
		Lang:       "en-US",
		Title:      "A Sample Document",
		Producer:   "uatag",
		CreateDate: "2026-07-31T00:00:00Z",
		ModifyDate: "2026-07-31T00:00:00Z",
	})
}

func TestApplyMarkInfoSetsMarkedAndSuspects(t *testing.T) {
	root := parser.NewDictionary()
	newCatalogWriter().ApplyMarkInfo(root)

	mi, ok := root.Get("MarkInfo").(*parser.Dictionary)
	if !ok {
		t.Fatalf("expected MarkInfo dictionary")
	}
	if !mi.GetBool("Marked") {
		t.Error("expected Marked=true")
	}
	if mi.GetBool("Suspects") {
		t.Error("expected Suspects=false")
	}
}

func TestApplyViewerPreferencesPreservesExistingKeys(t *testing.T) {
	root := parser.NewDictionary()
	vp := parser.NewDictionary()
	vp.Set("HideToolbar", parser.NewBoolean(true))
	root.Set("ViewerPreferences", vp)

	newCatalogWriter().ApplyViewerPreferences(root)

	got, ok := root.Get("ViewerPreferences").(*parser.Dictionary)
	if !ok {
		t.Fatalf("expected ViewerPreferences dictionary")
	}
	if !got.GetBool("DisplayDocTitle") {
		t.Error("expected DisplayDocTitle=true")
	}
	if !got.GetBool("HideToolbar") {
		t.Error("expected existing HideToolbar preserved")
	}
}

func TestApplyMetadataProducesMetadataStream(t *testing.T) {
	root := parser.NewDictionary()
	if err := newCatalogWriter().ApplyMetadata(root); err != nil {
		t.Fatalf("apply metadata: %v", err)
	}
	stream, ok := root.Get("Metadata").(*parser.Stream)
	if !ok {
		t.Fatalf("expected Metadata stream")
	}
	if stream.Dictionary().GetName("Subtype") == nil || stream.Dictionary().GetName("Subtype").String() != "/XML" {
		t.Errorf("expected Subtype /XML, got %v", stream.Dictionary().GetName("Subtype"))
	}
}

func TestApplyPageTabsOnlySetWhenAnnotsPresent(t *testing.T) {
	page := parser.NewDictionary()
	cw := newCatalogWriter()
	cw.ApplyPageTabs(page)
	if page.Has("Tabs") {
		t.Error("expected no Tabs without Annots")
	}

	annots := parser.NewArray()
	annots.Append(parser.NewDictionary())
	page.Set("Annots", annots)
	cw.ApplyPageTabs(page)
	if !page.Has("Tabs") {
		t.Error("expected Tabs set when Annots present")
	}
}

func TestApplyLinkAnnotationSynthesizesContents(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{"mailto:jane@example.com", "Email link to jane@example.com"},
		{"https://www.example.com/docs/guide", "Link to docs/guide on example.com"},
		{"https://example.com", "Link to example.com"},
		{"", "Link"},
	}
	for _, c := range cases {
		annot := parser.NewDictionary()
		if c.uri != "" {
			action := parser.NewDictionary()
			action.Set("URI", parser.NewString(c.uri))
			annot.Set("A", action)
		}
		newCatalogWriter().ApplyLinkAnnotation(annot, 3)

		got := annot.GetString("Contents")
		if got != c.want {
			t.Errorf("uri %q: got contents %q, want %q", c.uri, got, c.want)
		}
		if annot.GetInteger("StructParents") != 3 {
			t.Errorf("expected StructParents=3, got %d", annot.GetInteger("StructParents"))
		}
		if annot.GetInteger("F")&4 == 0 {
			t.Error("expected Print flag bit set")
		}
	}
}

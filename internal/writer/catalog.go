package writer

import (
	"fmt"
	"strings"

	"github.com/coregx/uatag/internal/parser"
)

// CatalogConfig carries the run-level settings CatalogWriter needs that
// cannot be derived from the document itself.
type CatalogConfig struct {
	Lang             string // BCP-47 tag; defaults to "en-US"
	Title            string // configured title override, if any
	LargestFontTitle string // fallback: largest-font string on page 1
	FileStem         string // final fallback: the file's base name without extension
	Producer         string
	CreateDate       string
	ModifyDate       string
	MetadataDate     string
}

// CatalogWriter applies the document-level finalisation keys: MarkInfo,
// Lang, ViewerPreferences, the XMP metadata stream, DocInfo.Title, and
// per-page Tabs/link-annotation enrichment. Every operation here is
// idempotent: running it twice over its own output changes nothing but
// the XMP dates.
type CatalogWriter struct {
	cfg CatalogConfig
}

// NewCatalogWriter creates a CatalogWriter for the given run configuration.
func NewCatalogWriter(cfg CatalogConfig) *CatalogWriter {
	return &CatalogWriter{cfg: cfg}
}

func (cw *CatalogWriter) lang() string {
	if cw.cfg.Lang != "" {
		return cw.cfg.Lang
	}
	return "en-US"
}

func (cw *CatalogWriter) title() string {
	switch {
	case cw.cfg.Title != "":
		return cw.cfg.Title
	case cw.cfg.LargestFontTitle != "":
		return cw.cfg.LargestFontTitle
	default:
		return cw.cfg.FileStem
	}
}

// ApplyMarkInfo sets Root.MarkInfo = { Marked: true, Suspects: false }.
func (cw *CatalogWriter) ApplyMarkInfo(root *parser.Dictionary) {
	mi := parser.NewDictionary()
	mi.Set("Marked", parser.NewBoolean(true))
	mi.Set("Suspects", parser.NewBoolean(false))
	root.Set("MarkInfo", mi)
}

// ApplyLang sets Root.Lang to the configured language.
func (cw *CatalogWriter) ApplyLang(root *parser.Dictionary) {
	root.Set("Lang", parser.NewString(cw.lang()))
}

// ApplyViewerPreferences sets DisplayDocTitle=true, creating the
// ViewerPreferences dictionary if absent.
func (cw *CatalogWriter) ApplyViewerPreferences(root *parser.Dictionary) {
	vp, ok := root.Get("ViewerPreferences").(*parser.Dictionary)
	if !ok {
		vp = parser.NewDictionary()
	}
	vp.Set("DisplayDocTitle", parser.NewBoolean(true))
	root.Set("ViewerPreferences", vp)
}

// ApplyMetadata builds an XMP packet and attaches it to Root.Metadata as a
// /Metadata /XML stream.
func (cw *CatalogWriter) ApplyMetadata(root *parser.Dictionary) error {
	xmp, err := BuildXMP(XMPFields{
		Title:        cw.title(),
		Lang:         cw.lang(),
		Producer:     cw.cfg.Producer,
		CreateDate:   cw.cfg.CreateDate,
		ModifyDate:   cw.cfg.ModifyDate,
		MetadataDate: cw.cfg.MetadataDate,
	})
	if err != nil {
		return fmt.Errorf("catalog: build metadata: %w", err)
	}

	dict := parser.NewDictionary()
	dict.Set("Type", parser.NewName("Metadata"))
	dict.Set("Subtype", parser.NewName("XML"))
	dict.Set("Length", parser.NewInteger(int64(len(xmp))))

	root.Set("Metadata", parser.NewStream(dict, xmp))
	return nil
}

// ApplyDocInfoTitle sets info.Title per the preference chain: configured
// title, then page-1 largest-font string, then the file stem.
func (cw *CatalogWriter) ApplyDocInfoTitle(info *parser.Dictionary) {
	info.Set("Title", parser.NewString(cw.title()))
}

// ApplyPageTabs sets /Tabs = /S on page if it has non-empty Annots and no
// existing /Tabs entry.
func (cw *CatalogWriter) ApplyPageTabs(page *parser.Dictionary) {
	annots, ok := page.Get("Annots").(*parser.Array)
	if !ok || annots.Len() == 0 {
		return
	}
	if page.Has("Tabs") {
		return
	}
	page.Set("Tabs", parser.NewName("S"))
}

// ApplyLinkAnnotation synthesises /Contents for a link annotation lacking
// one, sets /StructParents to structParent, and sets bit 2 (Print, value 4)
// of /F when the flags key is absent.
func (cw *CatalogWriter) ApplyLinkAnnotation(annot *parser.Dictionary, structParent int) {
	if !annot.Has("Contents") {
		uri := linkURI(annot)
		annot.Set("Contents", parser.NewString(synthesizeLinkContents(uri)))
	}
	annot.Set("StructParents", parser.NewInteger(int64(structParent)))
	if !annot.Has("F") {
		annot.Set("F", parser.NewInteger(4))
	}
}

func linkURI(annot *parser.Dictionary) string {
	action, ok := annot.Get("A").(*parser.Dictionary)
	if !ok {
		return ""
	}
	uri := action.GetString("URI")
	return uri
}

// synthesizeLinkContents implements the URI-based fallback text rules for
// link annotations missing /Contents.
func synthesizeLinkContents(uri string) string {
	switch {
	case uri == "":
		return "Link"
	case strings.HasPrefix(uri, "mailto:"):
		return "Email link to " + strings.TrimPrefix(uri, "mailto:")
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return describeHTTPLink(uri)
	default:
		if len(uri) > 50 {
			uri = uri[:50]
		}
		return "Link: " + uri
	}
}

func describeHTTPLink(uri string) string {
	rest := strings.TrimPrefix(strings.TrimPrefix(uri, "https://"), "http://")
	host, path, _ := strings.Cut(rest, "/")
	host = strings.TrimPrefix(host, "www.")
	if path == "" {
		return "Link to " + host
	}
	return fmt.Sprintf("Link to %s on %s", path, host)
}

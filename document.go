// Package uatag opens a PDF, analyses its reading order, and rewrites it
// into a tagged, PDF/UA-1 structured document: marked content, a structure
// tree, resolved alternative text for figures and formulas, and the
// catalog-level metadata a screen reader or validator expects to find.
package uatag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/coregx/uatag/internal/alttext"
	"github.com/coregx/uatag/internal/application/forms"
	"github.com/coregx/uatag/internal/classify"
	"github.com/coregx/uatag/internal/extractor"
	"github.com/coregx/uatag/internal/layout"
	"github.com/coregx/uatag/internal/parser"
	"github.com/coregx/uatag/internal/pdferr"
	"github.com/coregx/uatag/internal/raster"
	"github.com/coregx/uatag/internal/score"
	"github.com/coregx/uatag/internal/structtree"
	"github.com/coregx/uatag/internal/validate"
	"github.com/coregx/uatag/internal/writer"
	"github.com/coregx/uatag/logging"
)

// Document represents an opened PDF document undergoing accessibility
// remediation. It must be closed after use to release the underlying file.
type Document struct {
	reader *parser.Reader
	ctx    context.Context
	path   string

	blocksByPage map[int][]classify.ClassifiedBlock
	lastWriter   *writer.DocumentWriter
}

// Open reads path's object graph and cross-reference table without
// rewriting anything. ctx bounds any later Analyze/AddTags/MakeAccessible
// call on the returned Document.
func Open(ctx context.Context, path string) (*Document, error) {
	r := parser.NewReader(path)
	if err := r.Open(); err != nil {
		return nil, pdferr.Wrap(pdferr.KindBadPdf, fmt.Sprintf("open %s", path), err)
	}
	if r.GetDocumentInfo().Encrypted {
		return nil, pdferr.New(pdferr.KindEncrypted, fmt.Sprintf("%s is encrypted", path))
	}
	return &Document{reader: r, ctx: ctx, path: path}, nil
}

// Close closes the document and releases resources. Safe to call multiple
// times.
func (d *Document) Close() error {
	if d.reader != nil {
		return d.reader.Close()
	}
	return nil
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the total number of pages.
func (d *Document) PageCount() int {
	count, err := d.reader.GetPageCount()
	if err != nil {
		return 0
	}
	return count
}

// DocumentInfo mirrors the PDF Info dictionary plus version and encryption
// state.
type DocumentInfo struct {
	PageCount int
	Path      string
	Version   string
	Title     string
	Author    string
	Subject   string
	Keywords  string
	Creator   string
	Producer  string
	Encrypted bool
}

// Info returns document metadata.
func (d *Document) Info() *DocumentInfo {
	pinfo := d.reader.GetDocumentInfo()
	return &DocumentInfo{
		PageCount: d.PageCount(),
		Path:      d.path,
		Version:   pinfo.Version,
		Title:     pinfo.Title,
		Author:    pinfo.Author,
		Subject:   pinfo.Subject,
		Keywords:  pinfo.Keywords,
		Creator:   pinfo.Creator,
		Producer:  pinfo.Producer,
		Encrypted: pinfo.Encrypted,
	}
}

// Version returns the PDF version (e.g. "1.7").
func (d *Document) Version() string { return d.reader.GetDocumentInfo().Version }

// Title returns the document title.
func (d *Document) Title() string { return d.reader.GetDocumentInfo().Title }

// Author returns the document author.
func (d *Document) Author() string { return d.reader.GetDocumentInfo().Author }

// Subject returns the document subject.
func (d *Document) Subject() string { return d.reader.GetDocumentInfo().Subject }

// Keywords returns the document keywords.
func (d *Document) Keywords() string { return d.reader.GetDocumentInfo().Keywords }

// Creator returns the application that created the document.
func (d *Document) Creator() string { return d.reader.GetDocumentInfo().Creator }

// Producer returns the PDF producer.
func (d *Document) Producer() string { return d.reader.GetDocumentInfo().Producer }

// IsEncrypted reports whether the document carries an encryption
// dictionary. Open already rejects encrypted documents; this remains for
// callers inspecting a Document obtained some other way.
func (d *Document) IsEncrypted() bool { return d.reader.GetDocumentInfo().Encrypted }

// Options configures a tagging or remediation run. Every field is
// optional; the zero value runs with offline defaults (no vision
// description, no OCR, the built-in raster renderer), so figures and
// formulas fall back to their fixed placeholder alt text.
type Options struct {
	Lang     string // BCP-47 tag for the catalog and structure tree; default "en-US"
	Title    string // overrides the document-info/largest-heading title-resolution chain
	Producer string // recorded in the XMP packet; DocInfo is not given a Producer

	Describer alttext.Describer // vision-model binding; NullDescriber if nil
	OCR       alttext.OCR       // optional OCR enrichment; NoOCR if nil
	Renderer  alttext.Renderer  // rasteriser for figure/formula regions; raster.NewRenderer if nil
}

func (o Options) orchestrator(reader *parser.Reader) *alttext.Orchestrator {
	describer := o.Describer
	if describer == nil {
		describer = alttext.NullDescriber{}
	}
	ocr := o.OCR
	if ocr == nil {
		ocr = alttext.NoOCR{}
	}
	renderer := o.Renderer
	if renderer == nil {
		renderer = raster.NewRenderer(reader)
	}
	return alttext.NewOrchestrator(describer, ocr, renderer)
}

// PageReport summarises what a tagging pass did to one page.
type PageReport struct {
	PageIndex      int
	BlocksTagged   int
	FiguresTagged  int
	AltTextWarning int // blocks whose resolved alt text failed local validation
}

// Result is the outcome of AddTags or MakeAccessible.
type Result struct {
	Pages []PageReport
}

// maxPageWorkers bounds how many pages are analysed, or described/OCR'd,
// concurrently. parser.Reader's object cache is safe for concurrent reads,
// but a PDF describer/OCR call is an external network or subprocess round
// trip, so an unbounded fan-out could open far more connections or
// processes than a single run should.
const maxPageWorkers = 8

// Analyze runs layout analysis and structural classification over every
// page without mutating anything, and caches the result for ExtractFigures
// and AddTags to reuse. Safe to call more than once; later calls recompute.
// Pages are analysed concurrently, bounded by maxPageWorkers, since each
// page's layout pass is independent of every other page's.
func (d *Document) Analyze() error {
	count := d.PageCount()
	results := make([][]classify.ClassifiedBlock, count)
	analyser := layout.NewAnalyser(d.reader)
	classifier := classify.NewClassifier()

	g, ctx := errgroup.WithContext(d.ctx)
	g.SetLimit(maxPageWorkers)

	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			blocks, err := analyser.Analyse(i)
			if err != nil {
				return fmt.Errorf("uatag: analyse page %d: %w", i, err)
			}
			results[i] = classifier.Classify(blocks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	blocksByPage := make(map[int][]classify.ClassifiedBlock, count)
	for i, blocks := range results {
		blocksByPage[i] = blocks
	}
	d.blocksByPage = blocksByPage
	return nil
}

func (d *Document) classifiedPages() (map[int][]classify.ClassifiedBlock, error) {
	if d.blocksByPage != nil {
		return d.blocksByPage, nil
	}
	if err := d.Analyze(); err != nil {
		return nil, err
	}
	return d.blocksByPage, nil
}

// FigureBlock is a Figure or Formula block paired with the caption/label
// text found near it on the page.
type FigureBlock struct {
	classify.ClassifiedBlock
	Context string
}

// RenderRegion rasterises a block's bounding box into PNG bytes, the same
// rendering AddTags uses internally to give a vision-capable describer a
// crop of a Figure or Formula region. Exposed directly so callers such as
// extract-figures can save a region's image without resolving alt text.
func (d *Document) RenderRegion(pageIndex int, bbox classify.BBox, scale float64) ([]byte, error) {
	return raster.NewRenderer(d.reader).RenderRegion(d.ctx, pageIndex, bbox, scale)
}

// ExtractFigures returns every Figure and Formula block in the document
// along with its surrounding context text, without resolving alt text or
// rewriting content streams.
func (d *Document) ExtractFigures() ([]FigureBlock, error) {
	pages, err := d.classifiedPages()
	if err != nil {
		return nil, err
	}

	ctxExtractor := classify.NewContextExtractor()
	var out []FigureBlock
	for page := 0; page < d.PageCount(); page++ {
		blocks := pages[page]
		for _, b := range blocks {
			if b.Role != classify.RoleFigure && b.Role != classify.RoleFormula {
				continue
			}
			out = append(out, FigureBlock{
				ClassifiedBlock: b,
				Context:         ctxExtractor.Extract(b, blocks),
			})
		}
	}
	return out, nil
}

// AddTags performs the core tagging pass: it rewrites every page's content
// stream with marked-content sections, resolves alt text for Figure and
// Formula blocks, and attaches a structure tree and ParentTree. It does
// not touch catalog-level metadata; use MakeAccessible for full
// remediation.
func (d *Document) AddTags(opts Options) (*Result, error) {
	pages, err := d.classifiedPages()
	if err != nil {
		return nil, err
	}

	rootRef, infoRef, err := d.catalogRefs()
	if err != nil {
		return nil, err
	}
	dw := writer.NewDocumentWriter(d.reader, rootRef, infoRef)

	textExtractor := extractor.NewTextExtractor(d.reader)
	rewriter := writer.NewContentStreamRewriter()
	orchestrator := opts.orchestrator(d.reader)
	contextExtractor := classify.NewContextExtractor()
	structBuilder := structtree.NewBuilder()

	report := &Result{Pages: make([]PageReport, 0, d.PageCount())}

	for page := 0; page < d.PageCount(); page++ {
		select {
		case <-d.ctx.Done():
			return nil, d.ctx.Err()
		default:
		}

		blocks := pages[page]
		alts, warnings := d.resolveAltText(orchestrator, contextExtractor, blocks)
		structBuilder.AddPage(page, blocks, alts)

		content, err := textExtractor.PageContentBytes(page)
		if err != nil {
			return nil, fmt.Errorf("uatag: read page %d content: %w", page, err)
		}
		rewritten, err := rewriter.Rewrite(content, blocks)
		if err != nil {
			return nil, fmt.Errorf("uatag: rewrite page %d: %w", page, err)
		}
		if err := d.replacePageContent(dw, page, rewritten); err != nil {
			return nil, fmt.Errorf("uatag: update page %d: %w", page, err)
		}

		report.Pages = append(report.Pages, PageReport{
			PageIndex:      page,
			BlocksTagged:   len(blocks),
			FiguresTagged:  len(alts),
			AltTextWarning: warnings,
		})
	}

	structObjects := structBuilder.Serialize(dw.AllocateObjectNumber)
	for num, dict := range structObjects.Dicts {
		dw.SetObject(num, dict)
	}

	catalog, err := d.reader.GetCatalog()
	if err != nil {
		return nil, fmt.Errorf("uatag: load catalog: %w", err)
	}
	catalog.Set("StructTreeRoot", parser.NewIndirectReference(structObjects.RootNum, 0))
	dw.SetObject(rootRef.Number, catalog)

	d.lastWriter = dw
	logging.Logger().Info("tagged document", "pages", len(report.Pages))
	return report, nil
}

// resolveAltText resolves alt text for every Figure/Formula block on a
// page, returning a BlockIndex-keyed map for structtree.Builder.AddPage
// and the count of blocks whose resolved text failed local validation.
func (d *Document) resolveAltText(o *alttext.Orchestrator, ce *classify.ContextExtractor, blocks []classify.ClassifiedBlock) (map[int]string, int) {
	type resolved struct {
		index   int
		alt     string
		warning bool
	}
	var candidates []classify.ClassifiedBlock
	for _, b := range blocks {
		if b.Role == classify.RoleFigure || b.Role == classify.RoleFormula {
			candidates = append(candidates, b)
		}
	}

	out := make([]resolved, len(candidates))
	g, ctx := errgroup.WithContext(d.ctx)
	g.SetLimit(maxPageWorkers)
	for i, b := range candidates {
		i, b := i, b
		g.Go(func() error {
			contextText := ce.Extract(b, blocks)
			result := o.Resolve(ctx, b, contextText)
			out[i] = resolved{index: b.BlockIndex, alt: result.Alt, warning: result.Warning}
			return nil
		})
	}
	_ = g.Wait() // describer/OCR failures are already recovered locally by Resolve; never propagated.

	alts := make(map[int]string, len(out))
	warnings := 0
	for _, r := range out {
		alts[r.index] = r.alt
		if r.warning {
			warnings++
		}
	}
	return alts, warnings
}

// replacePageContent mints a new content-stream object, points the page's
// /Contents at it, and sets /StructParents to the page index so the
// ParentTree lookup matches. The page dictionary itself is obtained
// through the reader's object cache, so mutating it in place is visible to
// DocumentWriter.Write without a separate SetObject call for the page
// object number.
func (d *Document) replacePageContent(dw *writer.DocumentWriter, pageIndex int, content []byte) error {
	page, err := d.reader.GetPage(pageIndex)
	if err != nil {
		return err
	}
	pageObjNum, err := d.reader.GetPageObjectNumber(pageIndex)
	if err != nil {
		return err
	}

	streamDict := parser.NewDictionary()
	streamDict.Set("Length", parser.NewInteger(int64(len(content))))
	contentNum := dw.AllocateObjectNumber()
	dw.SetObject(contentNum, parser.NewStream(streamDict, content))

	page.Set("Contents", parser.NewIndirectReference(contentNum, 0))
	page.Set("StructParents", parser.NewInteger(int64(pageIndex)))
	dw.SetObject(pageObjNum, page)
	return nil
}

func (d *Document) catalogRefs() (parser.IndirectReference, *parser.IndirectReference, error) {
	trailer := d.reader.Trailer()
	if trailer == nil {
		return parser.IndirectReference{}, nil, fmt.Errorf("uatag: document has no trailer")
	}
	rootRef, ok := trailer.Get("Root").(*parser.IndirectReference)
	if !ok {
		return parser.IndirectReference{}, nil, fmt.Errorf("uatag: trailer /Root is not an indirect reference")
	}
	var infoRef *parser.IndirectReference
	if ref, ok := trailer.Get("Info").(*parser.IndirectReference); ok {
		infoRef = ref
	}
	return *rootRef, infoRef, nil
}

// MakeAccessible runs AddTags and then applies catalog-level finalisation:
// MarkInfo, Lang, ViewerPreferences, XMP metadata, DocInfo.Title, and
// per-page Tabs and link-annotation enrichment.
func (d *Document) MakeAccessible(opts Options) (*Result, error) {
	result, err := d.AddTags(opts)
	if err != nil {
		return nil, err
	}
	dw := d.lastWriter

	rootRef, infoRef, err := d.catalogRefs()
	if err != nil {
		return nil, err
	}
	catalog, err := d.reader.GetCatalog()
	if err != nil {
		return nil, fmt.Errorf("uatag: load catalog: %w", err)
	}

	now := d.now()
	cw := writer.NewCatalogWriter(writer.CatalogConfig{
		Lang:             opts.Lang,
		Title:            opts.Title,
		LargestFontTitle: d.largestFontTitle(),
		FileStem:         strings.TrimSuffix(filepath.Base(d.path), filepath.Ext(d.path)),
		Producer:         opts.Producer,
		CreateDate:       now,
		ModifyDate:       now,
		MetadataDate:     now,
	})

	cw.ApplyMarkInfo(catalog)
	cw.ApplyLang(catalog)
	cw.ApplyViewerPreferences(catalog)
	if err := cw.ApplyMetadata(catalog); err != nil {
		return nil, fmt.Errorf("uatag: apply metadata: %w", err)
	}
	dw.SetObject(rootRef.Number, catalog)

	if infoRef != nil {
		info, ok := d.reader.ResolveReferences(infoRef).(*parser.Dictionary)
		if !ok {
			info = parser.NewDictionary()
		}
		cw.ApplyDocInfoTitle(info)
		dw.SetObject(infoRef.Number, info)
	}

	for page := 0; page < d.PageCount(); page++ {
		pageDict, err := d.reader.GetPage(page)
		if err != nil {
			return nil, fmt.Errorf("uatag: load page %d: %w", page, err)
		}
		cw.ApplyPageTabs(pageDict)
		if err := d.enrichLinkAnnotations(cw, pageDict, page); err != nil {
			return nil, fmt.Errorf("uatag: enrich links on page %d: %w", page, err)
		}
		pageObjNum, err := d.reader.GetPageObjectNumber(page)
		if err != nil {
			return nil, err
		}
		dw.SetObject(pageObjNum, pageDict)
	}

	return result, nil
}

// enrichLinkAnnotations applies ApplyLinkAnnotation to every Link
// annotation dictionary reachable from page's /Annots array. Annotation
// dictionaries come from the reader's own object cache, so in-place
// mutation here is picked up by DocumentWriter without an explicit
// SetObject for each annotation's own object number.
func (d *Document) enrichLinkAnnotations(cw *writer.CatalogWriter, page *parser.Dictionary, structParent int) error {
	annotsObj := page.Get("Annots")
	if annotsObj == nil {
		return nil
	}
	annots, err := d.reader.ResolveArray(annotsObj)
	if err != nil {
		return fmt.Errorf("resolve /Annots: %w", err)
	}
	for i := 0; i < annots.Len(); i++ {
		resolved := d.reader.ResolveReferences(annots.Get(i))
		annot, ok := resolved.(*parser.Dictionary)
		if !ok {
			continue
		}
		if subtype := annot.GetName("Subtype"); subtype == nil || subtype.Value() != "Link" {
			continue
		}
		cw.ApplyLinkAnnotation(annot, structParent)
	}
	return nil
}

// largestFontTitle returns the text of the largest-font block on page 1,
// the title-resolution chain's fallback below an explicit Options.Title.
func (d *Document) largestFontTitle() string {
	pages, err := d.classifiedPages()
	if err != nil || len(pages[0]) == 0 {
		return ""
	}
	best := pages[0][0]
	for _, b := range pages[0][1:] {
		if b.FontSizeMax > best.FontSizeMax {
			best = b
		}
	}
	return best.Text
}

func (d *Document) now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// Save serialises the document's current object graph, including any
// AddTags/MakeAccessible mutations, to path.
func (d *Document) Save(path string) error {
	if d.lastWriter == nil {
		return fmt.Errorf("uatag: nothing to save, call AddTags or MakeAccessible first")
	}
	out, err := d.lastWriter.Write()
	if err != nil {
		return pdferr.Wrap(pdferr.KindWriteError, "serialise document", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return pdferr.Wrap(pdferr.KindWriteError, fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// ValidationReport combines the raw validator record for path with the
// MorphMind score reduced from it. RunID identifies this validation run
// independently of any conformance clause so callers can correlate it with
// logs or a describer/OCR call made during the same invocation.
type ValidationReport struct {
	RunID  string
	Record *validate.Record
	Score  score.Report
}

// Validate runs the configured validator subprocess against path under
// profile and scores its report. It does not require the document to have
// been tagged in this process first: validating an externally produced PDF
// is a supported, independent entry point, per the ValidationTimeout and
// ValidatorNotInstalled error kinds being reserved for this path alone.
func (d *Document) Validate(ctx context.Context, runner *validate.Runner, path string, profile validate.Profile) (*ValidationReport, error) {
	rec, err := runner.Validate(ctx, path, profile)
	if err != nil {
		return nil, err
	}
	return &ValidationReport{
		RunID:  uuid.NewString(),
		Record: rec,
		Score:  score.Score(rec, nil),
	}, nil
}

// GetFormFields returns all interactive form fields in the document.
// Returns nil, nil if the document has no interactive form.
func (d *Document) GetFormFields() ([]*FormField, error) {
	reader := forms.NewReader(d.reader)
	internalFields, err := reader.GetFields()
	if err != nil {
		return nil, fmt.Errorf("uatag: get form fields: %w", err)
	}
	if internalFields == nil {
		return nil, nil
	}
	fields := make([]*FormField, len(internalFields))
	for i, internal := range internalFields {
		fields[i] = &FormField{internal: internal}
	}
	return fields, nil
}

// GetFieldValue returns the value of a form field by name.
func (d *Document) GetFieldValue(name string) (interface{}, error) {
	reader := forms.NewReader(d.reader)
	field, err := reader.GetFieldByName(name)
	if err != nil {
		return nil, err
	}
	return field.Value, nil
}

// HasForm reports whether the document contains an interactive form.
func (d *Document) HasForm() bool {
	acroForm, err := d.reader.GetAcroForm()
	return err == nil && acroForm != nil
}

// FormField represents an interactive form field, exposed read-only:
// AddTags and MakeAccessible do not modify form values, only the
// accessibility-relevant structure around them.
type FormField struct {
	internal *forms.FieldInfo
}

// Name returns the fully qualified field name.
func (f *FormField) Name() string { return f.internal.Name }

// Type returns the field type: "Tx", "Btn", "Ch", or "Sig".
func (f *FormField) Type() string { return string(f.internal.Type) }

// Value returns the current field value.
func (f *FormField) Value() interface{} { return f.internal.Value }

// DefaultValue returns the field's default value.
func (f *FormField) DefaultValue() interface{} { return f.internal.DefaultValue }

// Flags returns the field flags bitmask.
func (f *FormField) Flags() int { return f.internal.Flags }

// Rect returns the field rectangle [x1, y1, x2, y2].
func (f *FormField) Rect() [4]float64 { return f.internal.Rect }

// Options returns the available options for choice fields.
func (f *FormField) Options() []string { return f.internal.Options }

// IsReadOnly reports whether the field is read-only.
func (f *FormField) IsReadOnly() bool { return f.internal.Flags&1 != 0 }

// IsRequired reports whether the field is required.
func (f *FormField) IsRequired() bool { return f.internal.Flags&2 != 0 }

// IsTextField reports whether this is a text field.
func (f *FormField) IsTextField() bool { return f.internal.Type == forms.FieldTypeText }

// IsButton reports whether this is a button field (checkbox, radio).
func (f *FormField) IsButton() bool { return f.internal.Type == forms.FieldTypeButton }

// IsChoice reports whether this is a choice field (dropdown, list).
func (f *FormField) IsChoice() bool { return f.internal.Type == forms.FieldTypeChoice }

// Package docx implements document.Store for Word .docx packages.
//
// Paragraph text is edited in place: only the run text elements of
// modified paragraphs are rewritten; every other byte of the package,
// including parts that were not touched, is carried over unchanged.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/document"
)

const (
	// Extension is the file extension handled by this package.
	Extension = ".docx"

	mainPart = "word/document.xml"
)

func init() {
	document.Register(Extension, Store{})
}

// Store loads .docx templates.
type Store struct{}

var _ document.Store = Store{}

// Extension implements document.Store.
func (Store) Extension() string { return Extension }

// Load implements document.Store.
func (Store) Load(filePath string) (document.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &document.TemplateLoadError{Path: filePath, Cause: err}
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, &document.TemplateLoadError{Path: filePath, Cause: err}
	}
	return doc, nil
}

// Document is a parsed .docx package.
type Document struct {
	archive *zip.Reader
	parts   []*part
}

var _ document.Document = (*Document)(nil)

// Parse reads a .docx package from memory.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a docx package: %w", err)
	}

	var (
		main    *zip.File
		headers []*zip.File
		footers []*zip.File
	)
	for _, f := range zr.File {
		switch {
		case f.Name == mainPart:
			main = f
		case isNumberedPart(f.Name, "header"):
			headers = append(headers, f)
		case isNumberedPart(f.Name, "footer"):
			footers = append(footers, f)
		}
	}
	if main == nil {
		return nil, errors.New("not a docx package: missing " + mainPart)
	}
	sortParts(headers)
	sortParts(footers)

	doc := &Document{archive: zr}
	add := func(f *zip.File, region document.Region) error {
		raw, err := readEntry(f)
		if err != nil {
			return err
		}
		p, err := parsePart(f.Name, region, raw)
		if err != nil {
			return err
		}
		doc.parts = append(doc.parts, p)
		return nil
	}

	if err := add(main, document.RegionBody); err != nil {
		return nil, err
	}
	for _, f := range headers {
		if err := add(f, document.RegionHeader); err != nil {
			return nil, err
		}
	}
	for _, f := range footers {
		if err := add(f, document.RegionFooter); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// isNumberedPart matches word/header.xml, word/header1.xml and so on.
func isNumberedPart(name, kind string) bool {
	dir, file := path.Split(name)
	if dir != "word/" || !strings.HasPrefix(file, kind) || !strings.HasSuffix(file, ".xml") {
		return false
	}
	num := strings.TrimSuffix(strings.TrimPrefix(file, kind), ".xml")
	if num == "" {
		return true
	}
	_, err := strconv.Atoi(num)
	return err == nil
}

// sortParts orders header1, header2, ..., header10 numerically.
func sortParts(files []*zip.File) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].Name, files[j].Name
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

// Paragraphs implements document.Document.
func (d *Document) Paragraphs() []document.Located {
	var out []document.Located
	for _, p := range d.parts {
		for _, para := range p.paragraphs {
			out = append(out, document.Located{Part: p.name, Region: para.region, Paragraph: para})
		}
	}
	return out
}

// Save implements document.Document.
func (d *Document) Save(filePath string) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filePath, err)
	}
	if err := d.Encode(f); err != nil {
		_ = f.Close()
		_ = os.Remove(filePath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(filePath)
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return nil
}

// Encode writes the package, with edits applied, to w.
func (d *Document) Encode(w io.Writer) error {
	dirty := make(map[string]*part)
	for _, p := range d.parts {
		if p.dirty {
			dirty[p.name] = p
		}
	}

	zw := zip.NewWriter(w)
	for _, f := range d.archive.File {
		p, ok := dirty[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}

		hdr := &zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		}
		ew, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := ew.Write(p.render()); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish docx package: %w", err)
	}
	return nil
}

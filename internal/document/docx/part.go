package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/document"
)

// wordNS is the WordprocessingML main namespace.
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type segmentKind int

const (
	segText  segmentKind = iota // <w:t>
	segTab                      // <w:tab/> inside a run
	segBreak                    // <w:br/> or <w:cr/> inside a run
)

// segment is one text-bearing element of a run, located by byte offsets
// into the part's XML.
type segment struct {
	kind   segmentKind
	run    int    // index of the enclosing <w:r> within the paragraph
	prefix string // namespace prefix used in the source, e.g. "w"
	start  int    // offset of '<' of the start tag
	end    int    // offset just past the end tag (or the self-closing tag)
	text   string // original text
}

func (s segment) originalText() string {
	switch s.kind {
	case segTab:
		return "\t"
	case segBreak:
		return "\n"
	default:
		return s.text
	}
}

// part is one XML part of the package that contains paragraphs.
type part struct {
	name       string
	region     document.Region
	data       []byte
	paragraphs []*paragraph
	dirty      bool
}

// parsePart scans data and records every paragraph with the byte spans
// of its text-bearing run children.
func parsePart(name string, region document.Region, data []byte) (*part, error) {
	p := &part{name: name, region: region, data: data}

	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		elems   []xml.Name   // open element stack
		open    []*paragraph // open paragraph stack
		inCell  int          // depth of open table cells
		pending *segment     // <w:t> awaiting its end tag
		empty   *segment     // <w:tab>, <w:br> or <w:cr> awaiting its end tag
		text    strings.Builder
	)

	for {
		offset := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		after := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			parent := xml.Name{}
			if len(elems) > 0 {
				parent = elems[len(elems)-1]
			}
			elems = append(elems, t.Name)

			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				region := p.region
				if inCell > 0 {
					region = document.RegionTable
				}
				para := &paragraph{
					part:     p,
					region:   region,
					start:    offset,
					startEnd: after,
					prefix:   tagPrefix(data[offset:after]),
				}
				p.paragraphs = append(p.paragraphs, para)
				open = append(open, para)
			case "tc":
				inCell++
			case "r":
				if len(open) > 0 {
					open[len(open)-1].runCount++
				}
			case "t", "tab", "br", "cr":
				if len(open) == 0 || parent.Space != wordNS || parent.Local != "r" {
					continue
				}
				seg := &segment{prefix: tagPrefix(data[offset:after]), start: offset, end: after}
				switch t.Name.Local {
				case "t":
					seg.kind = segText
				case "tab":
					seg.kind = segTab
				default:
					if !isLineBreak(t) {
						continue
					}
					seg.kind = segBreak
				}
				para := open[len(open)-1]
				seg.run = max(para.runCount-1, 0)
				para.segments = append(para.segments, seg)
				if seg.kind == segText {
					pending = seg
					text.Reset()
				} else {
					empty = seg
				}
			}

		case xml.CharData:
			if pending != nil {
				text.Write(t)
			}

		case xml.EndElement:
			if len(elems) > 0 {
				elems = elems[:len(elems)-1]
			}
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if len(open) > 0 {
					para := open[len(open)-1]
					para.closeStart = offset
					para.selfClosing = offset == after && offset == para.startEnd
					open = open[:len(open)-1]
				}
			case "tc":
				inCell--
			case "t":
				if pending != nil {
					pending.end = after
					pending.text = text.String()
					pending = nil
				}
			case "tab", "br", "cr":
				// after equals the start tag's end for the self-closing form
				if empty != nil {
					empty.end = after
					empty = nil
				}
			}
		}
	}

	for _, para := range p.paragraphs {
		para.reset()
	}
	return p, nil
}

// isLineBreak reports whether a <w:br> is a text line break rather than
// a page or column break.
func isLineBreak(t xml.StartElement) bool {
	if t.Name.Local == "cr" {
		return true
	}
	for _, a := range t.Attr {
		if a.Name.Local == "type" && a.Value != "textWrapping" {
			return false
		}
	}
	return true
}

// tagPrefix extracts the namespace prefix from raw start-tag bytes such
// as `<w:t xml:space="preserve">`.
func tagPrefix(raw []byte) string {
	s := strings.TrimPrefix(string(raw), "<")
	end := strings.IndexAny(s, " \t\r\n/>")
	if end >= 0 {
		s = s[:end]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return ""
}

// edit replaces data[start:end] with repl.
type edit struct {
	start, end int
	repl       []byte
}

// render returns the part's XML with every modified paragraph spliced in.
func (p *part) render() []byte {
	if !p.dirty {
		return p.data
	}

	var edits []edit
	for _, para := range p.paragraphs {
		edits = append(edits, para.edits()...)
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var out bytes.Buffer
	out.Grow(len(p.data))
	last := 0
	for _, e := range edits {
		out.Write(p.data[last:e.start])
		out.Write(e.repl)
		last = e.end
	}
	out.Write(p.data[last:])
	return out.Bytes()
}

func elementName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// runContent spells s as run children: text elements separated by tab
// and break elements.
func runContent(prefix, s string) []byte {
	if s == "" {
		return []byte("<" + elementName(prefix, "t") + "/>")
	}

	var buf bytes.Buffer
	var chunk strings.Builder
	flush := func() {
		if chunk.Len() == 0 {
			return
		}
		name := elementName(prefix, "t")
		buf.WriteString("<" + name + ` xml:space="preserve">`)
		escapeText(&buf, chunk.String())
		buf.WriteString("</" + name + ">")
		chunk.Reset()
	}

	for _, r := range s {
		switch r {
		case '\t':
			flush()
			buf.WriteString("<" + elementName(prefix, "tab") + "/>")
		case '\n':
			flush()
			buf.WriteString("<" + elementName(prefix, "br") + "/>")
		case '\r':
			// dropped; \r\n becomes a single break
		default:
			chunk.WriteRune(r)
		}
	}
	flush()
	return buf.Bytes()
}

// escapeText writes s as XML character data, dropping characters XML 1.0
// cannot represent.
func escapeText(buf *bytes.Buffer, s string) {
	for _, r := range s {
		switch {
		case r == '&':
			buf.WriteString("&amp;")
		case r == '<':
			buf.WriteString("&lt;")
		case r == '>':
			buf.WriteString("&gt;")
		case r == 0x09 || r == 0x0A || r == 0x0D:
			buf.WriteRune(r)
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
			// not representable in XML 1.0
		default:
			buf.WriteRune(r)
		}
	}
}

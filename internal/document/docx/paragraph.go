package docx

import (
	"strings"

	"github.com/leapstack-labs/leapdoc/internal/document"
)

// paragraph is a <w:p> element. Its text is the concatenation of the
// text, tab and break children of its runs.
type paragraph struct {
	part     *part
	region   document.Region
	segments []*segment
	runCount int

	// raw span of the paragraph, used only when a run must be added
	start       int
	startEnd    int
	closeStart  int
	selfClosing bool
	prefix      string

	texts    []string
	modified bool
	added    string // text for a run added to a paragraph that had none
}

var _ document.Paragraph = (*paragraph)(nil)

func (p *paragraph) reset() {
	p.texts = make([]string, len(p.segments))
	for i, s := range p.segments {
		p.texts[i] = s.originalText()
	}
	p.modified = false
	p.added = ""
}

func (p *paragraph) Text() string {
	if len(p.segments) == 0 {
		return p.added
	}
	return strings.Join(p.texts, "")
}

// SetText puts s into the first run and empties all the others. A
// paragraph without runs gets a new one.
func (p *paragraph) SetText(s string) {
	p.modified = true
	p.part.dirty = true
	if len(p.segments) == 0 {
		p.added = s
		return
	}
	p.texts[0] = s
	for i := 1; i < len(p.texts); i++ {
		p.texts[i] = ""
	}
}

func (p *paragraph) Runs() []string {
	if len(p.segments) == 0 {
		if p.modified {
			return []string{p.added}
		}
		return make([]string, p.runCount)
	}
	runs := make([]string, p.runCount)
	for i, s := range p.segments {
		runs[s.run] += p.texts[i]
	}
	return runs
}

// edits returns the byte replacements that carry the paragraph's new text
// into the part XML.
func (p *paragraph) edits() []edit {
	if !p.modified {
		return nil
	}

	if len(p.segments) == 0 {
		run := "<" + elementName(p.prefix, "r") + ">" +
			string(runContent(p.prefix, p.added)) +
			"</" + elementName(p.prefix, "r") + ">"
		if !p.selfClosing {
			return []edit{{start: p.closeStart, end: p.closeStart, repl: []byte(run)}}
		}
		raw := string(p.part.data[p.start:p.startEnd])
		open := strings.TrimSpace(strings.TrimSuffix(raw, "/>")) + ">"
		closeTag := "</" + elementName(p.prefix, "p") + ">"
		return []edit{{start: p.start, end: p.startEnd, repl: []byte(open + run + closeTag)}}
	}

	edits := make([]edit, len(p.segments))
	for i, s := range p.segments {
		e := edit{start: s.start, end: s.end}
		if i == 0 {
			e.repl = runContent(s.prefix, p.texts[0])
		}
		edits[i] = e
	}
	return edits
}

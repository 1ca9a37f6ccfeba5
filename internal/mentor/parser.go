// Package mentor turns the structured replies of the mentor into blocks that a
// renderer can lay out. Parsing is a pure function of the text.
package mentor

import (
	"regexp"
	"strings"
)

// Kind classifies a block.
type Kind int

const (
	// KindRaw is unstructured text kept verbatim.
	KindRaw Kind = iota
	// KindSection is a titled section introduced by a ### header.
	KindSection
	// KindParagraph is body text outside any section.
	KindParagraph
)

func (k Kind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindParagraph:
		return "paragraph"
	default:
		return "raw"
	}
}

// DefaultIcon is used for section titles that match no keyword.
const DefaultIcon = "✨"

// Span is a run of text, optionally emphasized.
type Span struct {
	Text string
	Bold bool
}

// Line is one non-empty body line.
type Line struct {
	Bullet bool
	Spans  []Span
}

// Text joins the spans without emphasis.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Block is one renderable unit of a reply. Raw holds the source text of the block.
type Block struct {
	Kind  Kind
	Title string
	Icon  string
	Lines []Line
	Raw   string
}

var (
	sectionHeader = regexp.MustCompile(`^### \d\. `)
	titlePrefix   = regexp.MustCompile(`^### \d\. |^### `)
	numbered      = regexp.MustCompile(`^\d+\.`)
	listNumber    = regexp.MustCompile(`^\d+\.\s`)
)

const pseudoHeader = "### PSEUDO STEPS"

var icons = []struct {
	keyword, icon string
}{
	{"UNDERSTANDING", "📖"},
	{"APPROACH", "💡"},
	{"HINTS", "🗝️"},
	{"EDGE", "🧪"},
	{"COMPLEXITY", "⚡"},
	{"PSEUDO", "🪜"},
}

// IconFor maps a section title to its icon by case-insensitive keyword match.
func IconFor(title string) string {
	t := strings.ToUpper(title)
	for _, e := range icons {
		if strings.Contains(t, e.keyword) {
			return e.icon
		}
	}
	return DefaultIcon
}

func isHeader(line string) bool {
	return sectionHeader.MatchString(line) || strings.HasPrefix(line, pseudoHeader)
}

// Parse splits text into blocks. Text without any ### marker becomes a single
// raw block. Blank text yields no blocks.
func Parse(text string) []Block {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	segments := split(text)
	if len(segments) <= 1 && !strings.Contains(text, "###") {
		return []Block{{Kind: KindRaw, Raw: text}}
	}

	blocks := make([]Block, 0, len(segments))
	for _, seg := range segments {
		trimmed := strings.TrimSpace(seg)
		if trimmed == "" {
			continue
		}
		lines := strings.Split(trimmed, "\n")
		head := lines[0]
		if strings.HasPrefix(head, "###") {
			title := strings.TrimSpace(titlePrefix.ReplaceAllString(head, ""))
			blocks = append(blocks, Block{
				Kind:  KindSection,
				Title: title,
				Icon:  IconFor(title),
				Lines: parseLines(lines[1:]),
				Raw:   trimmed,
			})
			continue
		}
		blocks = append(blocks, Block{
			Kind:  KindParagraph,
			Lines: parseLines(lines),
			Raw:   trimmed,
		})
	}
	return blocks
}

// split cuts text before every header line, keeping line breaks.
func split(text string) []string {
	var (
		segments []string
		cur      strings.Builder
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		if isHeader(line) && cur.Len() > 0 {
			segments = append(segments, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		segments = append(segments, cur.String())
	}
	return segments
}

func parseLines(raw []string) []Line {
	out := make([]Line, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		var line Line
		switch {
		case numbered.MatchString(l):
			line.Bullet = true
			l = listNumber.ReplaceAllString(l, "")
		case strings.HasPrefix(l, "- "), strings.HasPrefix(l, "* "):
			line.Bullet = true
			l = l[2:]
		}
		line.Spans = spans(l)
		out = append(out, line)
	}
	return out
}

// spans splits on ** so that odd-indexed parts are bold.
func spans(s string) []Span {
	parts := strings.Split(s, "**")
	out := make([]Span, 0, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, Span{Text: p, Bold: i%2 == 1})
	}
	return out
}

// Package render formats sessions, mentor replies and reviews for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/and161185/guidecode/internal/mentor"
	"github.com/and161185/guidecode/internal/model"
)

// Palette colors.
var (
	Indigo  = lipgloss.Color("#4f46e5")
	Emerald = lipgloss.Color("#10b981")
	Blue    = lipgloss.Color("#3b82f6")
	Rose    = lipgloss.Color("#f43f5e")
	Slate   = lipgloss.Color("#64748b")
	Ink     = lipgloss.Color("#0f172a")
)

var avatarColors = map[string]lipgloss.Color{
	"indigo":  Indigo,
	"emerald": Emerald,
	"blue":    Blue,
	"rose":    Rose,
}

// Styles holds the lipgloss styles used by the printers.
type Styles struct {
	Header    lipgloss.Style
	Muted     lipgloss.Style
	Bold      lipgloss.Style
	Section   lipgloss.Style
	Card      lipgloss.Style
	UserBox   lipgloss.Style
	MentorBox lipgloss.Style
	Bullet    lipgloss.Style
	Active    lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
}

// NewStyles returns the default styles.
func NewStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(Indigo).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(Slate),

		Bold: lipgloss.NewStyle().
			Foreground(Ink).
			Bold(true),

		Section: lipgloss.NewStyle().
			Foreground(Indigo).
			Bold(true),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Slate).
			Padding(0, 1),

		UserBox: lipgloss.NewStyle().
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(Indigo),

		MentorBox: lipgloss.NewStyle().
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(Emerald),

		Bullet: lipgloss.NewStyle().
			Foreground(Indigo).
			Bold(true),

		Active: lipgloss.NewStyle().
			Foreground(Emerald).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Emerald).
			Bold(true),
	}
}

// Printer renders domain values to strings.
type Printer struct {
	st Styles
}

// New returns a Printer with the default styles.
func New() *Printer { return &Printer{st: NewStyles()} }

// Message renders one chat turn. Mentor turns are parsed into sections.
func (p *Printer) Message(m model.Message) string {
	label, box := "USER QUERY", p.st.UserBox
	body := m.Content
	if m.Role == model.RoleAssistant {
		label, box = "MENTOR RESPONSE", p.st.MentorBox
		body = p.Blocks(mentor.Parse(m.Content))
	}
	head := p.st.Header.Render(label) + "  " + p.st.Muted.Render(m.Timestamp.Local().Format("15:04"))
	return box.Render(head + "\n" + body)
}

// Session renders a whole conversation.
func (p *Printer) Session(s model.Session) string {
	var b strings.Builder
	b.WriteString(p.st.Bold.Render(s.Title))
	b.WriteString("\n\n")
	for i, m := range s.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Message(m))
	}
	return b.String()
}

// Blocks renders parsed mentor blocks.
func (p *Printer) Blocks(blocks []mentor.Block) string {
	out := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		switch blk.Kind {
		case mentor.KindRaw:
			out = append(out, blk.Raw)
		case mentor.KindSection:
			head := blk.Icon + " " + p.st.Section.Render(strings.ToUpper(blk.Title))
			out = append(out, p.st.Card.Render(head+p.lines(blk.Lines, true)))
		default:
			out = append(out, strings.TrimPrefix(p.lines(blk.Lines, false), "\n"))
		}
	}
	return strings.Join(out, "\n")
}

func (p *Printer) lines(lines []mentor.Line, leadingBreak bool) string {
	var b strings.Builder
	for _, l := range lines {
		if leadingBreak || b.Len() > 0 {
			b.WriteString("\n")
		}
		if l.Bullet {
			b.WriteString(p.st.Bullet.Render("•") + " ")
		}
		for _, s := range l.Spans {
			if s.Bold {
				b.WriteString(p.st.Bold.Render(s.Text))
				continue
			}
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// SessionList renders a compact index of sessions. The active one is marked.
func (p *Printer) SessionList(sessions []model.Session, active string) string {
	if len(sessions) == 0 {
		return p.st.Muted.Render("No discussions yet. Start one with `guidecode new`.")
	}
	var b strings.Builder
	for i, s := range sessions {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := "  "
		if s.ID == active {
			marker = p.st.Active.Render("▸ ")
		}
		fmt.Fprintf(&b, "%s%s  %s  %s", marker, p.st.Muted.Render(shortID(s.ID)), s.Title,
			p.st.Muted.Render(fmt.Sprintf("(%d messages, %s)", len(s.Messages), s.UpdatedAt.Local().Format("2006-01-02 15:04"))))
	}
	return b.String()
}

// Review renders the three review sections.
func (p *Printer) Review(rv model.Review) string {
	parts := []struct{ icon, title, body string }{
		{"🔎", "Logical Issues", rv.LogicalIssues},
		{"⚡", "Efficiency Concerns", rv.EfficiencyConcerns},
		{"💡", "Improvement Suggestions", rv.ImprovementSuggestions},
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, p.st.Card.Render(part.icon+" "+p.st.Section.Render(part.title)+"\n"+part.body))
	}
	return strings.Join(out, "\n")
}

// Stats renders the data vault summary.
func (p *Printer) Stats(u model.User, st model.Stats) string {
	rows := []string{
		p.User(u),
		fmt.Sprintf("📁 Total Sessions  %d", st.Sessions),
		fmt.Sprintf("💬 Total Messages  %d", st.Messages),
		fmt.Sprintf("💾 Storage Used    %s", KB(st.StorageBytes)),
	}
	return p.st.Card.Render(strings.Join(rows, "\n"))
}

// KB formats a byte count in kilobytes with two decimals.
func KB(n int) string { return fmt.Sprintf("%.2f KB", float64(n)/1024) }

// User renders the avatar initial, name and email.
func (p *Printer) User(u model.User) string {
	initial := "?"
	if r := []rune(strings.TrimSpace(u.Name)); len(r) > 0 {
		initial = strings.ToUpper(string(r[0]))
	}
	color, ok := avatarColors[u.AvatarColor]
	if !ok {
		color = Indigo
	}
	avatar := lipgloss.NewStyle().Background(color).Foreground(lipgloss.Color("#ffffff")).Bold(true).Padding(0, 1).Render(initial)
	return avatar + " " + p.st.Bold.Render(u.Name) + " " + p.st.Muted.Render("<"+u.Email+">")
}

// Error renders a user-facing failure line.
func (p *Printer) Error(msg string) string { return p.st.Error.Render(msg) }

// Success renders a user-facing confirmation line.
func (p *Printer) Success(msg string) string { return p.st.Success.Render(msg) }

// Muted renders secondary text.
func (p *Printer) Muted(msg string) string { return p.st.Muted.Render(msg) }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

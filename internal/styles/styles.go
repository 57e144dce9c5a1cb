package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// 색상 정의
	Primary   = lipgloss.Color("#04B575")
	Secondary = lipgloss.Color("#3C3C3C")
	Success   = lipgloss.Color("#04B575")
	Warning   = lipgloss.Color("#FFCC00")
	Error     = lipgloss.Color("#FF5F56")
	Muted     = lipgloss.Color("#626262")
	White     = lipgloss.Color("#FFFFFF")
	Cyan      = lipgloss.Color("#00CED1")

	// 트랜잭션 상태별 색상
	StatusColors = map[string]lipgloss.Color{
		"success": Success,
		"failure": Error,
	}

	// 방향별 색상
	DirectionColors = map[string]lipgloss.Color{
		"sent":     Warning,
		"received": Cyan,
	}

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(White).
			Background(Primary).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Secondary).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(12)

	ValueStyle = lipgloss.NewStyle().
			Foreground(White)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)

	// 테이블 스타일
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(White).
				Background(Secondary).
				Padding(0, 1)

	TableRowStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// StatusStyle 트랜잭션 상태에 맞는 스타일 반환
func StatusStyle(status string) lipgloss.Style {
	color, ok := StatusColors[status]
	if !ok {
		color = Muted
	}
	return lipgloss.NewStyle().Foreground(color)
}

// DirectionStyle 송수신 방향에 맞는 스타일 반환
func DirectionStyle(direction string) lipgloss.Style {
	color, ok := DirectionColors[direction]
	if !ok {
		color = White
	}
	return lipgloss.NewStyle().Foreground(color)
}

// KeyValue renders "label value" rows inside a box
func KeyValue(title string, rows [][2]string) string {
	lines := make([]string, 0, len(rows)+1)
	if title != "" {
		lines = append(lines, HeaderStyle.Render(title))
	}
	for _, row := range rows {
		lines = append(lines, LabelStyle.Render(row[0])+" "+ValueStyle.Render(row[1]))
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// Table renders rows with per-column widths taken from the widest cell
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) && lipgloss.Width(row[i]) > widths[i] {
				widths[i] = lipgloss.Width(row[i])
			}
		}
	}

	var b strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = TableHeaderStyle.Render(pad(h, widths[i]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))

	for _, row := range rows {
		b.WriteString("\n")
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = TableRowStyle.Render(pad(cell, widths[i]))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return b.String()
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// Errorf prints-ready error line
func Errorf(format string, args ...interface{}) string {
	return ErrorStyle.Render("✗ " + fmt.Sprintf(format, args...))
}

// Successf prints-ready success line
func Successf(format string, args ...interface{}) string {
	return SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...))
}

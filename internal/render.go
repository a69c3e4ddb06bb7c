package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Role colors follow the session transcript convention: user green,
	// assistant magenta, system blue, tool cyan.
	roleStyles = map[Role]lipgloss.Style{
		RoleUser:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		RoleAssistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		RoleSystem:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		RoleTool:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
	}

	separatorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	counterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	attachmentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Italic(true)
)

// RenderLog writes a styled transcript of the log to w.
func RenderLog(w io.Writer, log *Log) {
	if len(log.Messages) == 0 {
		fmt.Fprintln(w, "No messages to display.")
		return
	}

	separator := separatorStyle.Render(strings.Repeat("-", 50))
	for i, msg := range log.Messages {
		RenderMessage(w, msg)
		fmt.Fprintln(w, counterStyle.Render(fmt.Sprintf("Message %d of %d", i+1, len(log.Messages))))
		fmt.Fprintln(w, separator)
	}
	fmt.Fprintln(w, counterStyle.Render(fmt.Sprintf("Total messages shown: %d", len(log.Messages))))
}

// RenderMessage writes one message with a role-colored header.
func RenderMessage(w io.Writer, msg Message) {
	style, ok := roleStyles[msg.Role]
	if !ok {
		style = lipgloss.NewStyle().Bold(true)
	}

	header := string(msg.Role)
	if msg.Meta != nil && msg.Meta.Timestamp != "" {
		header += " " + msg.Meta.Timestamp
	}
	fmt.Fprintln(w, style.Render("["+header+"]"))
	fmt.Fprintln(w, msg.Content)
	for _, att := range msg.Attachments {
		fmt.Fprintln(w, attachmentStyle.Render(fmt.Sprintf("(%s attachment: %s)", att.Kind, att.Ref)))
	}
}

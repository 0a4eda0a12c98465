package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	statusStyles = map[WorkflowStatus]lipgloss.Style{
		StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		StatusCanceled:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		StatusWaiting:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
	}
)

const (
	indent = "   "
	bullet = "│ "
)

func renderStatus(status WorkflowStatus) string {
	if style, ok := statusStyles[status]; ok {
		return style.Render(string(status))
	}
	return valueStyle.Render(string(status))
}

func (response *StatusResponse) String() string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render("Task Details") + "\n")
	sb.WriteString(bullet + labelStyle.Render("ID: ") + valueStyle.Render(response.TaskID) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Status: ") + renderStatus(response.Status) + "\n")

	writeEventLogs(&sb, response.EventLogs)

	return sb.String()
}

func (payload *WebhookPayload) String() string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render("Webhook") + "\n")
	sb.WriteString(bullet + labelStyle.Render("Task ID: ") + valueStyle.Render(payload.TaskID) + "\n")
	if payload.UniqueID != "" {
		sb.WriteString(bullet + labelStyle.Render("Unique ID: ") + valueStyle.Render(payload.UniqueID) + "\n")
	}
	sb.WriteString(bullet + labelStyle.Render("Status: ") + renderStatus(payload.Status) + "\n")

	writeEventLogs(&sb, payload.EventLogs)

	return sb.String()
}

func writeEventLogs(sb *strings.Builder, events []EventLog) {
	if len(events) == 0 {
		return
	}

	sb.WriteString("\n" + sectionStyle.Render("Events") + "\n")

	for i, event := range events {
		sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Event %d: ", i+1)) +
			valueStyle.Render(string(event.EventType)) + "\n")

		if at, ok := event.Timestamp.Time(); ok {
			sb.WriteString(bullet + indent + labelStyle.Render("At: ") +
				valueStyle.Render(at.Format(time.RFC3339)) + "\n")
		}

		writeEventData(sb, event.EventData)
	}
}

func writeEventData(sb *strings.Builder, data any) {
	switch v := data.(type) {
	case nil:
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(bullet + indent + labelStyle.Render(k+": ") +
				valueStyle.Render(compact(v[k])) + "\n")
		}
	default:
		sb.WriteString(bullet + indent + labelStyle.Render("Data: ") +
			valueStyle.Render(compact(v)) + "\n")
	}
}

func compact(value any) string {
	if text, ok := value.(string); ok {
		return text
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}

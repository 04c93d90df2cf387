package trace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

// formatNDJSON formats an event as newline-delimited JSON.
func formatNDJSON(ev Event) []byte {
	type jsonEvent struct {
		Time   string `json:"time"`
		Seq    uint64 `json:"seq"`
		Kind   string `json:"kind"`
		Scope  string `json:"scope"`
		Name   string `json:"name"`
		Detail string `json:"detail,omitempty"`
	}

	j := jsonEvent{
		Time:   ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Name:   ev.Name,
		Detail: ev.Detail,
	}
	data, _ := json.Marshal(j)
	data = append(data, '\n')
	return data
}

// formatText formats an event as human-readable text.
// Format: [seq] scope →/←/• name (detail)
func formatText(ev Event) []byte {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%6d] %-7s ", ev.Seq, ev.Scope))

	switch ev.Kind {
	case KindBegin:
		sb.WriteString("\u2192 ") // →
	case KindEnd:
		sb.WriteString("\u2190 ") // ←
	default:
		sb.WriteString("\u2022 ") // •
	}

	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}
	sb.WriteString("\n")
	return []byte(sb.String())
}

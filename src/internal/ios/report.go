// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ios

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Verdicts used in Report.Status and Check.Status.
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusWarning = "WARNING"
	StatusOK      = "OK"
)

// Detail is one key/value line of a report.
type Detail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Check is one named verification inside a report.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// List is a titled list of lines, such as missing routes or active hosts.
type List struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Section is raw device output shown verbatim.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Report is the result of one network operation.
type Report struct {
	Success bool      `json:"success"`
	Device  string    `json:"device,omitempty"`
	Message string    `json:"message"`
	Status  string    `json:"status,omitempty"`
	Details []Detail  `json:"details,omitempty"`
	Checks  []Check   `json:"checks,omitempty"`
	Lists   []List    `json:"lists,omitempty"`
	Output  []Section `json:"output,omitempty"`
}

// NewReport starts a successful report for device.
func NewReport(device string) *Report {
	return &Report{Success: true, Device: device}
}

// Succeed sets the message of a successful report.
func (r *Report) Succeed(format string, args ...any) *Report {
	r.Success = true
	r.Message = fmt.Sprintf(format, args...)
	return r
}

// Fail marks the report unsuccessful.
func (r *Report) Fail(format string, args ...any) *Report {
	r.Success = false
	r.Message = fmt.Sprintf(format, args...)
	return r
}

// Add appends a key/value detail.
func (r *Report) Add(key string, value any) *Report {
	r.Details = append(r.Details, Detail{Key: key, Value: fmt.Sprint(value)})
	return r
}

// Get returns the value of the first detail named key.
func (r *Report) Get(key string) (string, bool) {
	for _, d := range r.Details {
		if d.Key == key {
			return d.Value, true
		}
	}
	return "", false
}

// AddCheck appends a named verification result.
func (r *Report) AddCheck(name, status, detail string) *Report {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: detail})
	return r
}

// Check returns the check named name.
func (r *Report) Check(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

// AddList appends a titled list.
func (r *Report) AddList(title string, items []string) *Report {
	r.Lists = append(r.Lists, List{Title: title, Items: items})
	return r
}

// AddOutput appends raw device output. Empty bodies are skipped.
func (r *Report) AddOutput(title, body string) *Report {
	if strings.TrimSpace(body) == "" {
		return r
	}
	r.Output = append(r.Output, Section{Title: title, Body: body})
	return r
}

// OutputOf returns the body of the output section titled title.
func (r *Report) OutputOf(title string) string {
	for _, s := range r.Output {
		if s.Title == title {
			return s.Body
		}
	}
	return ""
}

// Render formats the report as markdown for MCP clients and terminals.
//
// The first line is the verdict: "✅ <message>" or "❌ Error: <message>".
// Details and checks follow as tables, then lists, then fenced output.
func (r *Report) Render() string {
	var b strings.Builder

	if r.Success {
		fmt.Fprintf(&b, "✅ %s\n", r.Message)
	} else {
		fmt.Fprintf(&b, "❌ Error: %s\n", r.Message)
	}

	if r.Device != "" || r.Status != "" {
		b.WriteString("\n")
		if r.Device != "" {
			fmt.Fprintf(&b, "**Device:** %s\n", r.Device)
		}
		if r.Status != "" {
			fmt.Fprintf(&b, "**Status:** %s %s\n", statusIcon(r.Status), r.Status)
		}
	}

	if len(r.Details) > 0 {
		rows := make([][]string, 0, len(r.Details))
		for _, d := range r.Details {
			rows = append(rows, []string{d.Key, d.Value})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Field", "Value"}, rows))
	}

	if len(r.Checks) > 0 {
		rows := make([][]string, 0, len(r.Checks))
		for _, c := range r.Checks {
			rows = append(rows, []string{c.Name, statusIcon(c.Status) + " " + c.Status, c.Detail})
		}
		b.WriteString("\n### Checks\n\n")
		b.WriteString(renderTable([]string{"Check", "Status", "Detail"}, rows))
	}

	for _, l := range r.Lists {
		fmt.Fprintf(&b, "\n### %s (%d)\n\n", l.Title, len(l.Items))
		if len(l.Items) == 0 {
			b.WriteString("- none\n")
		}
		for _, item := range l.Items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}

	for _, s := range r.Output {
		fmt.Fprintf(&b, "\n### %s\n\n```\n%s\n```\n", s.Title, strings.TrimRight(s.Body, "\n"))
	}

	return b.String()
}

func renderTable(header []string, rows [][]string) string {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header(header)
	table.Bulk(rows)
	table.Render()
	return buf.String()
}

func statusIcon(status string) string {
	switch status {
	case StatusPass, StatusOK, "HEALTHY":
		return "✅"
	case StatusWarning:
		return "⚠️"
	case StatusFail, "ISSUES DETECTED":
		return "❌"
	}
	return "ℹ️"
}

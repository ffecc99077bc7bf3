// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/netssh"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// ResourceUsageData represents the resource usage of the server process and
// its SSH connection cache.
type ResourceUsageData struct {
	Timestamp   time.Time      `json:"timestamp"`
	MemoryUsage map[string]any `json:"memory_usage"`
	GCStats     map[string]any `json:"gc_stats"`
	SystemInfo  map[string]any `json:"system_info"`
	Connections map[string]any `json:"connections,omitempty"`
}

// CollectResourceUsage gathers current resource usage statistics.
// When cs is nil the connection section is left out.
func CollectResourceUsage(cs ConnectionStatus, now time.Time) *ResourceUsageData {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	data := &ResourceUsageData{
		Timestamp: now.UTC(),
		MemoryUsage: map[string]any{
			"heap_alloc_mb":  bytesToMB(memStats.HeapAlloc),
			"heap_sys_mb":    bytesToMB(memStats.HeapSys),
			"heap_inuse_mb":  bytesToMB(memStats.HeapInuse),
			"heap_objects":   memStats.HeapObjects,
			"stack_inuse_mb": bytesToMB(memStats.StackInuse),
			"sys_mb":         bytesToMB(memStats.Sys),
		},
		GCStats: map[string]any{
			"num_gc":          memStats.NumGC,
			"gc_cpu_fraction": memStats.GCCPUFraction * 100,
			"pause_total_ms":  float64(memStats.PauseTotalNs) / 1e6,
		},
		SystemInfo: map[string]any{
			"go_version":    runtime.Version(),
			"go_os":         runtime.GOOS,
			"go_arch":       runtime.GOARCH,
			"num_cpu":       runtime.NumCPU(),
			"num_goroutine": runtime.NumGoroutine(),
		},
	}

	if cs != nil {
		strategies := cs.Strategies()
		tunnel, cli := 0, 0
		for _, s := range strategies {
			switch s {
			case netssh.StrategyTunnel:
				tunnel++
			case netssh.StrategyCLIHop:
				cli++
			}
		}
		data.Connections = map[string]any{
			"devices":          len(cs.Inventory().Names()),
			"jump_hosts_open":  len(cs.JumpHosts()),
			"tunnel_devices":   tunnel,
			"jump_cli_devices": cli,
		}
	}

	return data
}

func bytesToMB(n uint64) float64 { return float64(n) / (1024 * 1024) }

// FormatResourceUsageAsMarkdown formats resource usage data as readable markdown tables.
func FormatResourceUsageAsMarkdown(data *ResourceUsageData) string {
	var buf strings.Builder

	buf.WriteString("# Server Resource Usage\n\n")
	fmt.Fprintf(&buf, "**Generated:** %s\n\n", data.Timestamp.Format("January 2, 2006 at 3:04 PM MST"))

	buf.WriteString("## System Information\n\n")
	buf.WriteString(formatMarkdownTable(data.SystemInfo, []string{
		"Go Version", "go_version",
		"Operating System", "go_os",
		"Architecture", "go_arch",
		"CPU Count", "num_cpu",
		"Goroutines", "num_goroutine",
	}))

	buf.WriteString("## Memory Usage\n\n")
	buf.WriteString(formatMarkdownTable(data.MemoryUsage, []string{
		"Heap Allocated", "heap_alloc_mb",
		"Heap System", "heap_sys_mb",
		"Heap In Use", "heap_inuse_mb",
		"Heap Objects", "heap_objects",
		"Stack In Use", "stack_inuse_mb",
		"Total From OS", "sys_mb",
	}))

	buf.WriteString("## Garbage Collection\n\n")
	buf.WriteString(formatMarkdownTable(data.GCStats, []string{
		"GC Cycles", "num_gc",
		"GC CPU Fraction", "gc_cpu_fraction",
		"Total Pause", "pause_total_ms",
	}))

	if data.Connections != nil {
		buf.WriteString("## SSH Connections\n\n")
		buf.WriteString(formatMarkdownTable(data.Connections, []string{
			"Inventory Devices", "devices",
			"Open Jump Hosts", "jump_hosts_open",
			"Devices via Tunnel", "tunnel_devices",
			"Devices via Jump CLI", "jump_cli_devices",
		}))
	}

	return buf.String()
}

// formatMarkdownTable creates a markdown table of the fields named in
// fieldPairs, given as label, key pairs. Missing keys are skipped.
func formatMarkdownTable(data map[string]any, fieldPairs []string) string {
	var rows [][]string
	for i := 0; i+1 < len(fieldPairs); i += 2 {
		label, key := fieldPairs[i], fieldPairs[i+1]
		if value, ok := data[key]; ok {
			rows = append(rows, []string{label, formatValueForMarkdown(value, key)})
		}
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"📊 METRIC", "📈 VALUE"})
	table.Bulk(rows)
	table.Render()

	buf.WriteString("\n")
	return buf.String()
}

// formatValueForMarkdown formats a value for markdown display
func formatValueForMarkdown(value any, key string) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		switch {
		case key == "gc_cpu_fraction":
			return fmt.Sprintf("%.2f%%", v)
		case strings.HasSuffix(key, "_mb"):
			return fmt.Sprintf("%.2f MB", v)
		case strings.HasSuffix(key, "_ms"):
			return fmt.Sprintf("%.2f ms", v)
		}
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-simplefs/internal/types"
	"github.com/deploymenttheory/go-simplefs/pkg/services"
)

// FormatOutput writes the debug dump in the requested output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		return formatDump(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatDump prints the classic superblock and inode listing
func formatDump(w io.Writer, response *Response) error {
	report := response.Report
	var b strings.Builder

	b.WriteString("superblock:\n")
	if !report.MagicValid {
		b.WriteString("\tmagic number is NOT valid\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteString("\tmagic number is valid\n")
	fmt.Fprintf(&b, "\t%d blocks\n", report.Blocks)
	fmt.Fprintf(&b, "\t%d inode blocks\n", report.InodeBlocks)
	fmt.Fprintf(&b, "\t%d inodes\n", report.Inodes)

	for _, file := range report.Files {
		fmt.Fprintf(&b, "inode %d:\n", file.Inumber)
		fmt.Fprintf(&b, "\tsize: %d bytes\n", file.Size)
		if file.Size > 0 {
			fmt.Fprintf(&b, "\tdirect blocks:%s\n", blockList(file.DirectBlocks))
		}
		if file.IndirectBlock.Allocated() {
			fmt.Fprintf(&b, "\tindirect block: %d\n", file.IndirectBlock)
			fmt.Fprintf(&b, "\tindirect data blocks:%s\n", blockList(file.IndirectDataBlocks))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func blockList(blocks []types.BlockNumber) string {
	var b strings.Builder
	for _, block := range blocks {
		fmt.Fprintf(&b, " %d", block)
	}
	return b.String()
}

// formatJSON formats results as JSON
func formatJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatYAML formats results as YAML
func formatYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(v)
}

// FormatStats writes device statistics in the requested output format
func FormatStats(w io.Writer, stats services.DeviceStats, format string) error {
	switch format {
	case "json":
		return formatJSON(w, stats)
	case "yaml":
		return formatYAML(w, stats)
	case "table":
		return formatStatsTable(w, stats)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatStatsTable(w io.Writer, stats services.DeviceStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "FIELD\tVALUE\n")
	fmt.Fprintf(tw, "-----\t-----\n")
	fmt.Fprintf(tw, "image\t%s\n", stats.ImagePath)
	fmt.Fprintf(tw, "blocks\t%d\n", stats.Blocks)
	fmt.Fprintf(tw, "inode blocks\t%d\n", stats.InodeBlocks)
	fmt.Fprintf(tw, "inodes\t%d\n", stats.Inodes)
	fmt.Fprintf(tw, "free blocks\t%d\n", stats.FreeBlocks)
	fmt.Fprintf(tw, "used blocks\t%d\n", stats.UsedBlocks)
	fmt.Fprintf(tw, "blocks read\t%d\n", stats.BlocksRead)
	fmt.Fprintf(tw, "blocks written\t%d\n", stats.BlocksWritten)
	fmt.Fprintf(tw, "errors\t%d\n", stats.Errors)
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nfree block bitmap:\n%s\n", stats.FreeMap)
	return err
}

// FormatSummary provides a brief summary for verbose output
func FormatSummary(response *Response) string {
	if response.Report == nil || !response.Report.MagicValid {
		return "Image is not formatted"
	}

	count := len(response.Report.Files)
	summary := fmt.Sprintf("%d inode", count)
	if count != 1 {
		summary += "s"
	}
	return fmt.Sprintf("%s in use, %d bytes in %d blocks", summary, response.TotalBytes(), response.UsedBlocks())
}

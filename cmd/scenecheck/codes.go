package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scenecheck/internal/diag"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List every finding code with its severity and title",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		switch format {
		case "pretty":
			colored, err := useColor(cmd, os.Stdout)
			if err != nil {
				return err
			}
			return renderCodes(cmd.OutOrStdout(), colored)
		case "json":
			return renderCodesJSON(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}
	},
}

func init() {
	codesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type codeEntry struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
}

func renderCodes(out io.Writer, colored bool) error {
	sevColor := map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan),
	}
	for _, c := range sevColor {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range diag.Codes() {
		sev := c.Severity().Label()
		// выравниваем до раскраски, иначе escape-коды ломают tabwriter
		sev = sevColor[c.Severity()].Sprint(fmt.Sprintf("%-7s", sev))
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID(), sev, c.Title())
	}
	return tw.Flush()
}

func renderCodesJSON(out io.Writer) error {
	codes := diag.Codes()
	entries := make([]codeEntry, 0, len(codes))
	for _, c := range codes {
		entries = append(entries, codeEntry{Code: c.ID(), Severity: c.Severity().Label(), Title: c.Title()})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

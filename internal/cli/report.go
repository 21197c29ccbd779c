package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/rulesync/internal/installer"
	"github.com/agentx-labs/rulesync/internal/writer"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// opLabelWidth fits the longest operation type.
const opLabelWidth = len(writer.OpOverwrite)

func opStyle(t writer.OperationType) lipgloss.Style {
	switch t {
	case writer.OpCreate:
		return createStyle
	case writer.OpOverwrite:
		return overwriteStyle
	default:
		return mergeStyle
	}
}

// printOperations writes one line per operation.
func printOperations(w io.Writer, ops []writer.Operation, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = styled(w, mutedStyle, "[dry-run] ")
	}
	for _, op := range ops {
		label := fmt.Sprintf("%-*s", opLabelWidth, op.Type)
		fmt.Fprintf(w, "  %s%s  %s\n", prefix, styled(w, opStyle(op.Type), label), filepath.ToSlash(op.Path))
	}
}

// printSummary writes the totals of an installation and anything skipped.
func printSummary(w io.Writer, res *installer.Result) {
	counts := res.Counts()
	verb := "Wrote"
	if res.DryRun {
		verb = "Would write"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, styled(w, headerStyle, printer.Sprintf("%s %d files: %d created, %d overwritten, %d merged",
		verb, len(res.Operations), counts[writer.OpCreate], counts[writer.OpOverwrite], counts[writer.OpMerge])))

	if len(res.SkippedCategories) > 0 {
		fmt.Fprintln(w, styled(w, mutedStyle, "Skipped shared categories not applicable to the selected technologies: "+
			strings.Join(res.SkippedCategories, ", ")))
	}
	if res.ManifestPath != "" {
		fmt.Fprintln(w, styled(w, mutedStyle, "Manifest: "+res.ManifestPath))
	}
}

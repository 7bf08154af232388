package main

import (
	"fmt"
	"strings"

	"github.com/mmbios/bibhtml/internal/reference"
	"github.com/mmbios/bibhtml/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <key|doi>",
	Short: "Get a single indexed reference",
	Long: `Get a single reference from the index by citation key or DOI.

Examples:
  bibhtml get Czech2017
  bibhtml get 10.1093/bioinformatics/btx001`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	id := args[0]
	ref, err := db.GetByKey(id)
	if err != nil {
		exitWithError(ExitError, "getting reference: %v", err)
	}
	if ref == nil {
		refs, err := storage.ReadAll(cfg.RefsPath())
		if err != nil {
			exitWithError(ExitError, "reading references: %v", err)
		}
		if i, ok := storage.FindByDOI(refs, id); ok {
			ref = &refs[i]
		}
	}
	if ref == nil {
		exitWithError(ExitError, "reference not found: %s", id)
	}

	if humanOutput {
		printRefDetail(*ref)
	} else {
		outputJSON(ref)
	}
	return nil
}

func printRefDetail(ref reference.Reference) {
	fmt.Println(ref.Key)
	fmt.Println(strings.Repeat("═", 70))
	fmt.Println()

	fmt.Printf("Title:    %s\n", wrapText(ref.Title, 60, "          "))
	if len(ref.Authors) > 0 {
		names := make([]string, len(ref.Authors))
		for i, a := range ref.Authors {
			names[i] = a.String()
		}
		fmt.Printf("Authors:  %s\n", wrapText(strings.Join(names, ", "), 60, "          "))
	}
	fmt.Println()

	if ref.Journal != "" {
		fmt.Printf("Journal:  %s\n", ref.Journal)
	}
	if vi := ref.VolumeIssue(); vi != "" {
		fmt.Printf("Volume:   %s%s\n", vi, ref.Pages)
	}
	fmt.Printf("Year:     %d\n", ref.Year)
	if ref.DOI != "" {
		fmt.Printf("DOI:      %s\n", ref.DOI)
	}
	if ref.PMID != "" {
		fmt.Printf("PMID:     %s\n", ref.PMID)
	}
	if len(ref.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(ref.Tags, ", "))
	}
}

func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	currentLine := ""
	for _, word := range strings.Fields(text) {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}
	return strings.Join(lines, "\n"+indent)
}

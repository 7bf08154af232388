package main

import (
	"fmt"

	"github.com/mmbios/bibhtml/internal/reference"
	"github.com/spf13/cobra"
)

var listLimit int

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum results to return (0 = all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed references",
	Long: `List the references in the index in bibliography order.

Examples:
  bibhtml list
  bibhtml list --limit 20 --human`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	refs, err := db.ListAll(listLimit)
	if err != nil {
		exitWithError(ExitError, "listing references: %v", err)
	}

	if !humanOutput {
		if refs == nil {
			refs = []reference.Reference{}
		}
		outputJSON(refs)
		return nil
	}

	total, _ := db.Count()
	if len(refs) == 0 {
		fmt.Println("No references in index")
		return nil
	}
	if listLimit > 0 && listLimit < total {
		fmt.Printf("%s references (showing first %d):\n\n", formatCount(total), len(refs))
	} else {
		fmt.Printf("%s %s in index:\n\n", formatCount(len(refs)), plural(len(refs), "reference"))
	}
	for _, ref := range refs {
		fmt.Printf("  %-20s %d  %s\n", ref.Key, ref.Year, truncateString(ref.Title, SearchTitleMaxLen))
	}
	return nil
}

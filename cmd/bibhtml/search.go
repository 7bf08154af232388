package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmbios/bibhtml/internal/reference"
	"github.com/mmbios/bibhtml/internal/storage"
	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchAuthor string
	searchTag    string
	searchYear   string
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().StringVarP(&searchAuthor, "author", "a", "", "Search by author name (prefix match)")
	searchCmd.Flags().StringVar(&searchTag, "tag", "", "Filter by category code, e.g. MMBIOS1-TRD2")
	searchCmd.Flags().StringVar(&searchYear, "year", "", "Filter by year: exact (2016), range (2014:2016), or open (2014: or :2016)")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed references",
	Long: `Search the references stored by 'bibhtml index'.

The query matches titles, journals, authors and category codes.

Examples:
  bibhtml search "monte carlo"
  bibhtml search -a Faeder --year 2014:
  bibhtml search --tag MMBIOS2-TRD3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters := storage.SearchFilters{Author: searchAuthor, Tag: searchTag}
	if len(args) > 0 {
		filters.Keyword = args[0]
	}
	if searchYear != "" {
		from, to, err := parseYearRange(searchYear)
		if err != nil {
			exitWithError(ExitError, "invalid year format: %v", err)
		}
		filters.YearFrom, filters.YearTo = from, to
	}
	if filters == (storage.SearchFilters{}) {
		exitWithError(ExitError, "must specify a query or at least one filter (--author, --tag, --year)")
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	refs, err := db.SearchWithFilters(filters, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	// Empty result is not an error
	if refs == nil {
		refs = []reference.Reference{}
	}

	if !humanOutput {
		outputJSON(refs)
		return nil
	}
	if len(refs) == 0 {
		fmt.Println("No references found")
		return nil
	}
	fmt.Printf("Found %d %s:\n\n", len(refs), plural(len(refs), "reference"))
	for i, ref := range refs {
		printRefSummary(i+1, ref)
	}
	return nil
}

// parseYearRange parses a year specification into from/to values.
// Supported formats: "2016", "2014:2016", "2014:", ":2016"
func parseYearRange(spec string) (from, to int, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0, nil
	}

	if before, after, ok := strings.Cut(spec, ":"); ok {
		if before != "" {
			from, err = strconv.Atoi(before)
			if err != nil {
				return 0, 0, fmt.Errorf("invalid start year %q", before)
			}
		}
		if after != "" {
			to, err = strconv.Atoi(after)
			if err != nil {
				return 0, 0, fmt.Errorf("invalid end year %q", after)
			}
		}
		return from, to, nil
	}

	year, err := strconv.Atoi(spec)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", spec)
	}
	return year, year, nil
}

func printRefSummary(num int, ref reference.Reference) {
	fmt.Printf("[%d] %s\n", num, ref.Key)
	fmt.Printf("    %s\n", truncateString(ref.Title, SearchTitleMaxLen))
	if len(ref.Authors) > 0 {
		fmt.Printf("    %s\n", formatAuthorsShort(ref.Authors, 3))
	}
	if ref.Journal != "" {
		fmt.Printf("    %s (%d)\n", ref.Journal, ref.Year)
	} else {
		fmt.Printf("    (%d)\n", ref.Year)
	}
	fmt.Println()
}

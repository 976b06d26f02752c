package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/audience-sync/internal/model"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List configured audience mappings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		mapping, err := cfg.Mapping()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "BRAND\tSEGMENT\tLIST_ID")
		_, _ = fmt.Fprintln(w, "-----\t-------\t-------")
		for _, brand := range mapping.Brands() {
			for _, seg := range model.AllSegmentNames {
				listID, ok := mapping[model.ListKey{Brand: brand, Segment: seg}]
				if !ok {
					continue
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", brand, seg, listID)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
}

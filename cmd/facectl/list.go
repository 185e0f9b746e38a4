package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrolled identities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd.Context(), comps, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context, c *face.Components, out io.Writer) error {
	enrollments, err := c.Store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load enrollments: %w", err)
	}

	if len(enrollments) == 0 {
		fmt.Fprintln(out, "No enrollments found.")
		return nil
	}

	keys := make([]string, 0, len(enrollments))
	for key := range enrollments {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "EMPLOYEE ID\tDIMENSION")
	fmt.Fprintln(w, "-----------\t---------")
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%d\n", key, enrollments[key].Dimension())
	}
	return w.Flush()
}

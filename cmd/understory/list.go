package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagLimit int

var listCmd = &cobra.Command{
	Use:   "list <prefix>",
	Short: "List indexed types under a qualified-name prefix",
	Long:  "Reads the browse index written by `understory index`. An empty prefix lists everything up to the limit.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&flagLimit, "limit", 200, "maximum number of results")
}

func runList(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}

	store, err := openIndex()
	if err != nil {
		return err
	}
	defer store.Close()

	types, err := store.TypesByPrefix(prefix, flagLimit)
	if err != nil {
		return err
	}
	if flagJSON {
		if types == nil {
			types = []string{}
		}
		return writeJSON(os.Stdout, types)
	}
	for _, qname := range types {
		fmt.Println(qname)
	}
	if len(types) == flagLimit {
		fmt.Fprintf(os.Stderr, "(truncated at %d, raise --limit for more)\n", flagLimit)
	}
	return nil
}

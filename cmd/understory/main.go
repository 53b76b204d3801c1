package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/index"
)

var (
	flagManifest string
	flagJSON     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "understory",
	Short:         "Symbol and type resolution for Java source trees",
	Long:          "Understory resolves names, types and calls in Java sources against a classpath of source roots, jars and the core library, driven by an understory.toml manifest.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagManifest, "manifest", "understory.toml", "project manifest path")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(resolveCmd)
}

// openProject builds the classpath described by the manifest.
func openProject() (*understory.Project, error) {
	m, err := understory.LoadManifest(flagManifest)
	if err != nil {
		return nil, err
	}
	p, err := understory.Open(m.Options()...)
	if err != nil {
		return nil, fmt.Errorf("opening project: %w", err)
	}
	return p, nil
}

// indexDBPath is .understory/index.db next to the manifest.
func indexDBPath() string {
	return filepath.Join(filepath.Dir(flagManifest), ".understory", "index.db")
}

func openIndex() (*index.Store, error) {
	dbPath := indexDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	store, err := index.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

var flagParallelism int

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Write the classpath's type names to the browse index",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&flagParallelism, "parallelism", 0, "max catalogs indexed concurrently (0 = unbounded)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	m, err := understory.LoadManifest(flagManifest)
	if err != nil {
		return err
	}
	opts := append(m.Options(), understory.WithParallelism(flagParallelism))
	p, err := understory.Open(opts...)
	if err != nil {
		return fmt.Errorf("opening project: %w", err)
	}
	defer p.Close()

	store, err := openIndex()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := p.IndexInto(cmd.Context(), store); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	counts, err := store.CountByCatalog()
	if err != nil {
		return err
	}
	if flagJSON {
		return writeJSON(os.Stdout, counts)
	}
	total := 0
	for origin, n := range counts {
		fmt.Printf("%s  %s\n", color.GreenString("%6d", n), origin)
		total += n
	}
	fmt.Printf("Indexed %d type(s) in %s\n", total, time.Since(start).Round(time.Millisecond))
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/spf13/cobra"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/resolve"
)

var typeCmd = &cobra.Command{
	Use:   "type <file> <line>:<col>",
	Short: "Compute the type of the expression at a source position",
	Long:  "Parses the file against the project classpath and types the smallest expression covering the given 1-based position.",
	Args:  cobra.ExactArgs(2),
	RunE:  runTypeOf,
}

// CLIExprType is the JSON shape of an expression-type result.
type CLIExprType struct {
	Expression string `json:"expression"`
	Kind       string `json:"kind"`
	Type       string `json:"type"`
}

func runTypeOf(cmd *cobra.Command, args []string) error {
	line, col, err := parsePosition(args[1])
	if err != nil {
		return err
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	tree, solver, err := p.SolverFor(cmd.Context(), src)
	if err != nil {
		return err
	}
	defer tree.Close()

	node := syntax.NodeAt(tree.RootNode(), line-1, col-1)
	if node == nil {
		return fmt.Errorf("no node at %s:%d:%d", args[0], line, col)
	}

	expr, t, err := typeEnclosing(solver, node)
	if err != nil {
		return err
	}

	out := CLIExprType{
		Expression: syntax.Text(expr, src),
		Kind:       expr.Type(),
		Type:       t.Describe(),
	}
	if flagJSON {
		return writeJSON(os.Stdout, out)
	}
	solved.Printf("%s\n", out.Type)
	bullet(os.Stdout, "%s: %s", out.Kind, out.Expression)
	return nil
}

// typeEnclosing types node, climbing to enclosing nodes while the one under
// the cursor is a token with no type of its own.
func typeEnclosing(solver *understory.Solver, node *sitter.Node) (*sitter.Node, resolve.Type, error) {
	var firstErr error
	for n := node; n != nil; n = n.Parent() {
		t, err := solver.CalculateType(n)
		if err == nil {
			return n, t, nil
		}
		if !errors.Is(err, understory.ErrUntypedNode) {
			return nil, nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, nil, firstErr
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/understory/internal/syntax"
	"github.com/jward/understory/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file> <line>:<col>",
	Short: "Resolve the name at a source position",
	Long:  "Parses the file against the project classpath and reports what the identifier at the given 1-based position binds to, along with its computed type.",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

// CLIResolution is the JSON shape of a resolution result.
type CLIResolution struct {
	Name     string `json:"name"`
	Solved   bool   `json:"solved"`
	Kind     string `json:"kind,omitempty"` // value | type
	Binding  string `json:"binding,omitempty"`
	TypeName string `json:"type,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
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
	if node == nil || node.Type() != "identifier" {
		return fmt.Errorf("no identifier at %s:%d:%d", args[0], line, col)
	}
	name := syntax.Text(node, src)
	out := CLIResolution{Name: name}

	if ref, err := solver.ResolveSymbol(node, name); err == nil && ref.IsSolved() {
		out.Solved = true
		out.Kind = "value"
		out.Binding = bindingLabel(ref.Declaration())
		if t, err := solver.CalculateType(node); err == nil {
			out.TypeName = t.Describe()
		}
	} else if tref, terr := solver.ResolveType(node, name); terr == nil && tref.IsSolved() {
		out.Solved = true
		out.Kind = "type"
		out.Binding = tref.Declaration().QName
	}

	if flagJSON {
		return writeJSON(os.Stdout, out)
	}
	if !out.Solved {
		missed.Printf("%s: unresolved\n", name)
		return nil
	}
	solved.Printf("%s -> %s %s\n", out.Name, out.Kind, out.Binding)
	if out.TypeName != "" {
		bullet(os.Stdout, "type: %s", out.TypeName)
	}
	return nil
}

func bindingLabel(d resolve.Declaration) string {
	switch d := d.(type) {
	case resolve.Field:
		return fmt.Sprintf("field %s.%s", d.Declaring, d.FieldName)
	case resolve.Parameter:
		return "parameter " + d.ParamName
	case resolve.LocalVariable:
		return "local " + d.VarName
	case resolve.PatternVariable:
		return "pattern " + d.VarName
	case resolve.EnumConstant:
		return "enum constant " + d.ConstName
	default:
		return d.Name()
	}
}

func parsePosition(arg string) (line, col int, err error) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("position %q is not line:col", arg)
	}
	line, err = strconv.Atoi(parts[0])
	if err == nil {
		col, err = strconv.Atoi(parts[1])
	}
	if err != nil || line < 1 || col < 1 {
		return 0, 0, fmt.Errorf("position %q is not line:col", arg)
	}
	return line, col, nil
}

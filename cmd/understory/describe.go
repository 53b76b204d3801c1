package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/understory/resolve"
)

var describeCmd = &cobra.Command{
	Use:   "describe <qualified-name>",
	Short: "Describe a type declaration on the classpath",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

// CLIType is the JSON shape of a described type.
type CLIType struct {
	QName        string   `json:"qname"`
	Kind         string   `json:"kind"`
	TypeParams   []string `json:"type_params,omitempty"`
	Supers       []string `json:"supers,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	Methods      []string `json:"methods,omitempty"`
	Constructors []string `json:"constructors,omitempty"`
	EnumConsts   []string `json:"enum_constants,omitempty"`
	NestedIn     string   `json:"nested_in,omitempty"`
	Abstract     bool     `json:"abstract,omitempty"`
}

func runDescribe(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	defer p.Close()

	ref, err := p.Catalog().SolveType(args[0])
	if err != nil {
		return err
	}
	if !ref.IsSolved() {
		if flagJSON {
			return writeJSON(os.Stdout, map[string]any{"qname": args[0], "solved": false})
		}
		missed.Printf("%s: not on the classpath\n", args[0])
		return nil
	}
	out := describeDecl(ref.Declaration())
	if flagJSON {
		return writeJSON(os.Stdout, out)
	}

	section(os.Stdout, fmt.Sprintf("%s %s", out.Kind, out.QName))
	if len(out.TypeParams) > 0 {
		bullet(os.Stdout, "type parameters: <%s>", strings.Join(out.TypeParams, ", "))
	}
	for _, s := range out.Supers {
		bullet(os.Stdout, "extends/implements %s", s)
	}
	if out.NestedIn != "" {
		bullet(os.Stdout, "nested in %s", out.NestedIn)
	}
	for _, group := range []struct {
		name  string
		items []string
	}{
		{"enum constants", out.EnumConsts},
		{"fields", out.Fields},
		{"constructors", out.Constructors},
		{"methods", out.Methods},
	} {
		if len(group.items) == 0 {
			continue
		}
		section(os.Stdout, group.name)
		for _, item := range group.items {
			bullet(os.Stdout, "%s", item)
		}
	}
	return nil
}

func describeDecl(d *resolve.TypeDecl) CLIType {
	out := CLIType{
		QName:    d.QName,
		Kind:     string(d.DeclKind),
		NestedIn: d.NestedIn,
		Abstract: d.Abstract,
	}
	for _, tp := range d.TypeParams {
		s := tp.ParamName
		if tp.Bound != nil {
			s += " extends " + tp.Bound.Describe()
		}
		out.TypeParams = append(out.TypeParams, s)
	}
	for _, sup := range d.Supers {
		out.Supers = append(out.Supers, sup.Describe())
	}
	for _, f := range d.FieldList {
		s := f.Type.Describe() + " " + f.FieldName
		if f.Static {
			s = "static " + s
		}
		if f.Final {
			s = "final " + s
		}
		out.Fields = append(out.Fields, s)
	}
	for i := range d.MethodList {
		m := &d.MethodList[i]
		s := m.Signature()
		if m.Return != nil {
			s = m.Return.Describe() + " " + s
		}
		if m.Static {
			s = "static " + s
		}
		out.Methods = append(out.Methods, s)
	}
	for i := range d.CtorList {
		c := &d.CtorList[i]
		var params []string
		for _, p := range c.Params {
			params = append(params, p.Type.Describe())
		}
		out.Constructors = append(out.Constructors, d.Name()+"("+strings.Join(params, ", ")+")")
	}
	for _, e := range d.EnumConsts {
		out.EnumConsts = append(out.EnumConsts, e.ConstName)
	}
	return out
}

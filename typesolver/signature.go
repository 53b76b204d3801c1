package typesolver

import (
	"fmt"
	"strings"

	"github.com/jward/understory/resolve"
)

// The JVM Signature attribute carries the generic shape erased from
// descriptors: type parameters, parameterized supertypes, type-variable
// uses, and wildcards. The grammar is JVMS §4.7.9.1, parsed here by a
// simple recursive-descent cursor.

type sigParser struct {
	s string
	i int
}

func (p *sigParser) peek() byte {
	if p.i >= len(p.s) {
		return 0
	}
	return p.s[p.i]
}

func (p *sigParser) next() byte {
	c := p.peek()
	p.i++
	return c
}

func (p *sigParser) expect(c byte) error {
	if got := p.next(); got != c {
		return fmt.Errorf("signature %q: want %q at offset %d, got %q", p.s, c, p.i-1, got)
	}
	return nil
}

// identifier reads up to the next signature delimiter.
func (p *sigParser) identifier() (string, error) {
	start := p.i
	for p.i < len(p.s) && !strings.ContainsRune(".;[/<>:", rune(p.s[p.i])) {
		p.i++
	}
	if p.i == start {
		return "", fmt.Errorf("signature %q: empty identifier at offset %d", p.s, start)
	}
	return p.s[start:p.i], nil
}

// classSignature parses a class Signature attribute into type parameters
// and the (possibly parameterized) supertypes, superclass first.
func classSignature(sig string) ([]resolve.TypeParameter, []resolve.Type, error) {
	p := &sigParser{s: sig}
	tps, err := p.typeParameters()
	if err != nil {
		return nil, nil, err
	}
	var supers []resolve.Type
	for p.i < len(p.s) {
		t, err := p.referenceType()
		if err != nil {
			return nil, nil, err
		}
		supers = append(supers, t)
	}
	if len(supers) == 0 {
		return nil, nil, fmt.Errorf("signature %q: no superclass", sig)
	}
	return tps, supers, nil
}

// methodSignature parses a method Signature attribute into type parameters,
// parameter types and the return type. Throws clauses are read and dropped.
func methodSignature(sig string) ([]resolve.TypeParameter, []resolve.Type, resolve.Type, error) {
	p := &sigParser{s: sig}
	tps, err := p.typeParameters()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := p.expect('('); err != nil {
		return nil, nil, nil, err
	}
	var params []resolve.Type
	for p.peek() != ')' && p.peek() != 0 {
		t, err := p.javaType()
		if err != nil {
			return nil, nil, nil, err
		}
		params = append(params, t)
	}
	if err := p.expect(')'); err != nil {
		return nil, nil, nil, err
	}
	ret, err := p.javaType()
	if err != nil {
		return nil, nil, nil, err
	}
	for p.peek() == '^' {
		p.next()
		if _, err := p.referenceType(); err != nil {
			return nil, nil, nil, err
		}
	}
	if p.i != len(p.s) {
		return nil, nil, nil, fmt.Errorf("signature %q: trailing text at offset %d", sig, p.i)
	}
	return tps, params, ret, nil
}

// fieldSignature parses a field Signature attribute.
func fieldSignature(sig string) (resolve.Type, error) {
	p := &sigParser{s: sig}
	t, err := p.referenceType()
	if err != nil {
		return nil, err
	}
	if p.i != len(p.s) {
		return nil, fmt.Errorf("signature %q: trailing text at offset %d", sig, p.i)
	}
	return t, nil
}

// typeParameters parses an optional <...> type parameter section. A
// parameter's bounds collapse to one: nil for none, the bound itself for
// one, an intersection for several.
func (p *sigParser) typeParameters() ([]resolve.TypeParameter, error) {
	if p.peek() != '<' {
		return nil, nil
	}
	p.next()
	var out []resolve.TypeParameter
	for p.peek() != '>' && p.peek() != 0 {
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		var bounds []resolve.Type
		if p.peek() != ':' && p.peek() != '>' { // class bound may be absent
			b, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, b)
		}
		for p.peek() == ':' { // interface bounds
			p.next()
			b, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, b)
		}
		tp := resolve.TypeParameter{ParamName: name}
		switch len(bounds) {
		case 0:
		case 1:
			tp.Bound = bounds[0]
		default:
			tp.Bound = resolve.Intersection{Members: bounds}
		}
		out = append(out, tp)
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	return out, nil
}

// javaType parses a base type or a reference type signature.
func (p *sigParser) javaType() (resolve.Type, error) {
	switch p.peek() {
	case 'B':
		p.next()
		return resolve.Primitive{Name: resolve.Byte}, nil
	case 'C':
		p.next()
		return resolve.Primitive{Name: resolve.Char}, nil
	case 'D':
		p.next()
		return resolve.Primitive{Name: resolve.Double}, nil
	case 'F':
		p.next()
		return resolve.Primitive{Name: resolve.Float}, nil
	case 'I':
		p.next()
		return resolve.Primitive{Name: resolve.Int}, nil
	case 'J':
		p.next()
		return resolve.Primitive{Name: resolve.Long}, nil
	case 'S':
		p.next()
		return resolve.Primitive{Name: resolve.Short}, nil
	case 'Z':
		p.next()
		return resolve.Primitive{Name: resolve.Boolean}, nil
	case 'V':
		p.next()
		return resolve.VoidType{}, nil
	default:
		return p.referenceType()
	}
}

// referenceType parses a class type, a type variable, or an array.
func (p *sigParser) referenceType() (resolve.Type, error) {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		p.next()
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		return resolve.TypeVariable{Name: name}, nil
	case '[':
		p.next()
		component, err := p.javaType()
		if err != nil {
			return nil, err
		}
		return resolve.Array{Component: component}, nil
	default:
		return nil, fmt.Errorf("signature %q: unexpected %q at offset %d", p.s, p.peek(), p.i)
	}
}

// classType parses `Lname<args>.Inner<args>;`. Nested suffixes extend the
// qualified name; only the innermost segment's type arguments are kept,
// which is all the flat reference model can carry.
func (p *sigParser) classType() (resolve.Type, error) {
	if err := p.expect('L'); err != nil {
		return nil, err
	}
	name, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	args, err := p.typeArguments()
	if err != nil {
		return nil, err
	}
	for p.peek() == '.' {
		p.next()
		inner, err := p.identifier()
		if err != nil {
			return nil, err
		}
		name += "." + inner
		if args, err = p.typeArguments(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	return resolve.Reference{Name: name, Args: args}, nil
}

func (p *sigParser) qualifiedName() (string, error) {
	var parts []string
	for {
		id, err := p.identifier()
		if err != nil {
			return "", err
		}
		parts = append(parts, id)
		if p.peek() != '/' {
			break
		}
		p.next()
	}
	return binaryToQName(strings.Join(parts, "/")), nil
}

// typeArguments parses an optional <...> argument section.
func (p *sigParser) typeArguments() ([]resolve.Type, error) {
	if p.peek() != '<' {
		return nil, nil
	}
	p.next()
	var args []resolve.Type
	for p.peek() != '>' && p.peek() != 0 {
		switch p.peek() {
		case '*':
			p.next()
			args = append(args, resolve.Wildcard{Direction: resolve.Unbounded})
		case '+':
			p.next()
			b, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, resolve.Wildcard{Direction: resolve.Extends, Bound: b})
		case '-':
			p.next()
			b, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, resolve.Wildcard{Direction: resolve.Super, Bound: b})
		default:
			t, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		}
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	return args, nil
}

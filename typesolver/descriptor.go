package typesolver

import (
	"fmt"
	"strings"

	"github.com/jward/understory/resolve"
)

// binaryToQName converts a JVM binary name ("java/util/Map$Entry") to a
// qualified source name ("java.util.Map.Entry").
func binaryToQName(binary string) string {
	return strings.NewReplacer("/", ".", "$", ".").Replace(binary)
}

// fieldTypeFromDescriptor parses one field descriptor at the front of desc,
// returning the type and the remaining descriptor text.
func fieldTypeFromDescriptor(desc string) (resolve.Type, string, error) {
	if desc == "" {
		return nil, "", fmt.Errorf("empty descriptor")
	}
	switch desc[0] {
	case 'B':
		return resolve.Primitive{Name: resolve.Byte}, desc[1:], nil
	case 'C':
		return resolve.Primitive{Name: resolve.Char}, desc[1:], nil
	case 'D':
		return resolve.Primitive{Name: resolve.Double}, desc[1:], nil
	case 'F':
		return resolve.Primitive{Name: resolve.Float}, desc[1:], nil
	case 'I':
		return resolve.Primitive{Name: resolve.Int}, desc[1:], nil
	case 'J':
		return resolve.Primitive{Name: resolve.Long}, desc[1:], nil
	case 'S':
		return resolve.Primitive{Name: resolve.Short}, desc[1:], nil
	case 'Z':
		return resolve.Primitive{Name: resolve.Boolean}, desc[1:], nil
	case 'V':
		return resolve.VoidType{}, desc[1:], nil
	case '[':
		component, rest, err := fieldTypeFromDescriptor(desc[1:])
		if err != nil {
			return nil, "", err
		}
		return resolve.Array{Component: component}, rest, nil
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated reference in descriptor %q", desc)
		}
		return resolve.Reference{Name: binaryToQName(desc[1:end])}, desc[end+1:], nil
	default:
		return nil, "", fmt.Errorf("unknown descriptor element %q", desc)
	}
}

// methodTypeFromDescriptor parses a method descriptor "(params)return".
func methodTypeFromDescriptor(desc string) ([]resolve.Type, resolve.Type, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, nil, fmt.Errorf("malformed method descriptor %q", desc)
	}
	rest := desc[1:]
	var params []resolve.Type
	for len(rest) > 0 && rest[0] != ')' {
		t, r, err := fieldTypeFromDescriptor(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("method descriptor %q: %w", desc, err)
		}
		params = append(params, t)
		rest = r
	}
	if len(rest) == 0 {
		return nil, nil, fmt.Errorf("unterminated method descriptor %q", desc)
	}
	ret, rest, err := fieldTypeFromDescriptor(rest[1:])
	if err != nil {
		return nil, nil, fmt.Errorf("method descriptor %q: %w", desc, err)
	}
	if rest != "" {
		return nil, nil, fmt.Errorf("trailing garbage in method descriptor %q", desc)
	}
	return params, ret, nil
}

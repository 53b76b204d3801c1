// Package classfile reads just enough of the JVM class-file format to
// recover a type's declared shape: its binary name, supertypes, access
// flags, field and method descriptors, and the generic Signature attribute
// where present. Bytecode, other attributes, and verification are out of
// scope.
package classfile

import (
	"encoding/binary"
	"fmt"
)

const magic = 0xCAFEBABE

// Access flag bits used for declaration shapes.
const (
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccVarargs    = 0x0080
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
)

// File is the declared shape of one parsed class file.
type File struct {
	// Name is the binary name with slashes, e.g. "java/util/ArrayList".
	Name string
	// SuperName is the binary name of the superclass, empty for Object.
	SuperName  string
	Interfaces []string
	Flags      uint16
	Fields     []Member
	Methods    []Member
	// Signature is the raw generic class signature, empty when the class
	// declares no type parameters and extends no parameterized type.
	Signature string
}

// Member is a field or method with its raw descriptor.
type Member struct {
	Name       string
	Descriptor string
	Flags      uint16
	// Signature is the raw generic signature, empty for non-generic members.
	Signature string
}

// IsInterface reports whether the class file declares an interface.
func (f *File) IsInterface() bool { return f.Flags&AccInterface != 0 }

// IsEnum reports whether the class file declares an enum.
func (f *File) IsEnum() bool { return f.Flags&AccEnum != 0 }

// IsAnnotation reports whether the class file declares an annotation type.
func (f *File) IsAnnotation() bool { return f.Flags&AccAnnotation != 0 }

// reader is a bounds-checked big-endian cursor over the class bytes.
type reader struct {
	buf []byte
	off int
}

func (r *reader) u1() (uint8, error) {
	if r.off+1 > len(r.buf) {
		return 0, fmt.Errorf("truncated at offset %d", r.off)
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u2() (uint16, error) {
	if r.off+2 > len(r.buf) {
		return 0, fmt.Errorf("truncated at offset %d", r.off)
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, fmt.Errorf("truncated at offset %d", r.off)
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, fmt.Errorf("truncated at offset %d (want %d bytes)", r.off, n)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) skip(n int) error {
	_, err := r.bytes(n)
	return err
}

// pool holds the decoded constant pool entries needed for names.
type pool struct {
	utf8    map[uint16]string
	classes map[uint16]uint16 // Class entry -> Utf8 index
}

func (p *pool) className(idx uint16) (string, error) {
	if idx == 0 {
		return "", nil
	}
	u, ok := p.classes[idx]
	if !ok {
		return "", fmt.Errorf("constant #%d is not a class", idx)
	}
	s, ok := p.utf8[u]
	if !ok {
		return "", fmt.Errorf("class constant #%d names missing utf8 #%d", idx, u)
	}
	return s, nil
}

func (p *pool) utf8At(idx uint16) (string, error) {
	s, ok := p.utf8[idx]
	if !ok {
		return "", fmt.Errorf("constant #%d is not utf8", idx)
	}
	return s, nil
}

// Parse reads a class file. Malformed input is an error, never a partial
// result.
func Parse(data []byte) (*File, error) {
	r := &reader{buf: data}

	m, err := r.u4()
	if err != nil {
		return nil, fmt.Errorf("classfile: %w", err)
	}
	if m != magic {
		return nil, fmt.Errorf("classfile: bad magic 0x%08X", m)
	}
	if err := r.skip(4); err != nil { // minor + major version
		return nil, fmt.Errorf("classfile: %w", err)
	}

	cp, err := readPool(r)
	if err != nil {
		return nil, fmt.Errorf("classfile: constant pool: %w", err)
	}

	flags, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("classfile: %w", err)
	}
	thisIdx, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("classfile: %w", err)
	}
	superIdx, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("classfile: %w", err)
	}

	f := &File{Flags: flags}
	if f.Name, err = cp.className(thisIdx); err != nil {
		return nil, fmt.Errorf("classfile: this_class: %w", err)
	}
	if f.SuperName, err = cp.className(superIdx); err != nil {
		return nil, fmt.Errorf("classfile: super_class: %w", err)
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("classfile: %w", err)
	}
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, fmt.Errorf("classfile: interfaces: %w", err)
		}
		name, err := cp.className(idx)
		if err != nil {
			return nil, fmt.Errorf("classfile: interfaces: %w", err)
		}
		f.Interfaces = append(f.Interfaces, name)
	}

	if f.Fields, err = readMembers(r, cp); err != nil {
		return nil, fmt.Errorf("classfile: fields: %w", err)
	}
	if f.Methods, err = readMembers(r, cp); err != nil {
		return nil, fmt.Errorf("classfile: methods: %w", err)
	}
	if f.Signature, err = readAttributes(r, cp); err != nil {
		return nil, fmt.Errorf("classfile: attributes: %w", err)
	}
	return f, nil
}

func readPool(r *reader) (*pool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	p := &pool{utf8: map[uint16]string{}, classes: map[uint16]uint16{}}
	// Entries are numbered 1..count-1; Long and Double take two slots.
	for i := uint16(1); i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		switch tag {
		case 1: // Utf8
			n, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.bytes(int(n))
			if err != nil {
				return nil, err
			}
			p.utf8[i] = string(b)
		case 7: // Class
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			p.classes[i] = idx
		case 3, 4: // Integer, Float
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case 5, 6: // Long, Double occupy two pool slots
			if err := r.skip(8); err != nil {
				return nil, err
			}
			i++
		case 8, 16, 19, 20: // String, MethodType, Module, Package
			if err := r.skip(2); err != nil {
				return nil, err
			}
		case 9, 10, 11, 12, 17, 18: // refs, NameAndType, Dynamic
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case 15: // MethodHandle
			if err := r.skip(3); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown constant tag %d at entry %d", tag, i)
		}
	}
	return p, nil
}

func readMembers(r *reader, cp *pool) ([]Member, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, count)
	for i := 0; i < int(count); i++ {
		flags, err := r.u2()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := cp.utf8At(nameIdx)
		if err != nil {
			return nil, err
		}
		desc, err := cp.utf8At(descIdx)
		if err != nil {
			return nil, err
		}
		sig, err := readAttributes(r, cp)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{Name: name, Descriptor: desc, Flags: flags, Signature: sig})
	}
	return members, nil
}

// readAttributes walks an attribute table, keeping the Signature attribute's
// value and skipping everything else.
func readAttributes(r *reader, cp *pool) (string, error) {
	count, err := r.u2()
	if err != nil {
		return "", err
	}
	var signature string
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return "", err
		}
		n, err := r.u4()
		if err != nil {
			return "", err
		}
		if name, nerr := cp.utf8At(nameIdx); nerr == nil && name == "Signature" && n == 2 {
			sigIdx, err := r.u2()
			if err != nil {
				return "", err
			}
			if signature, err = cp.utf8At(sigIdx); err != nil {
				return "", fmt.Errorf("signature attribute: %w", err)
			}
			continue
		}
		if err := r.skip(int(n)); err != nil {
			return "", err
		}
	}
	return signature, nil
}

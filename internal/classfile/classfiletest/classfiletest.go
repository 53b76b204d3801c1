// Package classfiletest synthesizes minimal valid class files for tests.
package classfiletest

import "encoding/binary"

// Member describes a field or method to emit.
type Member struct {
	Name       string
	Descriptor string
	Flags      uint16
	Signature  string // emitted as a Signature attribute when non-empty
}

// Class describes the class file to build.
type Class struct {
	Name       string // binary name, e.g. "com/example/Foo"
	SuperName  string // binary name; "" emits java/lang/Object
	Interfaces []string
	Flags      uint16
	Fields     []Member
	Methods    []Member
	Signature  string // emitted as a Signature attribute when non-empty
}

type builder struct {
	pool    [][]byte
	utf8Idx map[string]uint16
	clsIdx  map[string]uint16
}

func (b *builder) utf8(s string) uint16 {
	if i, ok := b.utf8Idx[s]; ok {
		return i
	}
	entry := make([]byte, 3+len(s))
	entry[0] = 1
	binary.BigEndian.PutUint16(entry[1:], uint16(len(s)))
	copy(entry[3:], s)
	b.pool = append(b.pool, entry)
	idx := uint16(len(b.pool))
	b.utf8Idx[s] = idx
	return idx
}

func (b *builder) class(name string) uint16 {
	if i, ok := b.clsIdx[name]; ok {
		return i
	}
	u := b.utf8(name)
	entry := []byte{7, 0, 0}
	binary.BigEndian.PutUint16(entry[1:], u)
	b.pool = append(b.pool, entry)
	idx := uint16(len(b.pool))
	b.clsIdx[name] = idx
	return idx
}

// Build emits the class file bytes.
func Build(c Class) []byte {
	b := &builder{utf8Idx: map[string]uint16{}, clsIdx: map[string]uint16{}}

	thisIdx := b.class(c.Name)
	super := c.SuperName
	if super == "" {
		super = "java/lang/Object"
	}
	superIdx := b.class(super)
	var ifaceIdx []uint16
	for _, i := range c.Interfaces {
		ifaceIdx = append(ifaceIdx, b.class(i))
	}

	type memberIdx struct {
		name, desc, sig uint16
		flags           uint16
	}
	var sigAttrIdx uint16
	sigAttr := func(sig string) uint16 {
		if sig == "" {
			return 0
		}
		sigAttrIdx = b.utf8("Signature")
		return b.utf8(sig)
	}
	emitMembers := func(members []Member) []memberIdx {
		out := make([]memberIdx, len(members))
		for i, m := range members {
			out[i] = memberIdx{name: b.utf8(m.Name), desc: b.utf8(m.Descriptor), sig: sigAttr(m.Signature), flags: m.Flags}
		}
		return out
	}
	fields := emitMembers(c.Fields)
	methods := emitMembers(c.Methods)
	classSig := sigAttr(c.Signature)

	var out []byte
	u2 := func(v uint16) {
		out = append(out, byte(v>>8), byte(v))
	}
	u4 := func(v uint32) {
		out = append(out, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}

	u4(0xCAFEBABE)
	u2(0)  // minor
	u2(52) // major (Java 8)
	u2(uint16(len(b.pool) + 1))
	for _, e := range b.pool {
		out = append(out, e...)
	}
	u2(c.Flags)
	u2(thisIdx)
	u2(superIdx)
	u2(uint16(len(ifaceIdx)))
	for _, i := range ifaceIdx {
		u2(i)
	}
	writeSigAttr := func(sig uint16) {
		if sig == 0 {
			u2(0)
			return
		}
		u2(1)
		u2(sigAttrIdx)
		u4(2)
		u2(sig)
	}
	writeMembers := func(members []memberIdx) {
		u2(uint16(len(members)))
		for _, m := range members {
			u2(m.flags)
			u2(m.name)
			u2(m.desc)
			writeSigAttr(m.sig)
		}
	}
	writeMembers(fields)
	writeMembers(methods)
	writeSigAttr(classSig)
	return out
}

package ast

// Equal reports whether two trees declare the same things in the same
// order. Spans, source labels and literal spellings are ignored.
func Equal(a, b *Tree) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Decls) != len(b.Decls) {
		return false
	}
	for i := range a.Decls {
		if !declEqual(a.Decls[i], b.Decls[i]) {
			return false
		}
	}
	return true
}

func declEqual(a, b Decl) bool {
	switch x := a.(type) {
	case *ModuleDecl:
		y, ok := b.(*ModuleDecl)
		return ok && x.Name == y.Name
	case *ImportDecl:
		y, ok := b.(*ImportDecl)
		return ok && x.Name == y.Name
	case *ProtocolDecl:
		y, ok := b.(*ProtocolDecl)
		return ok && x.Name == y.Name
	case *Enumeration:
		y, ok := b.(*Enumeration)
		if !ok || x.Name != y.Name || x.Alignment != y.Alignment || len(x.Values) != len(y.Values) {
			return false
		}
		for i := range x.Values {
			if x.Values[i].Name != y.Values[i].Name || x.Values[i].Value != y.Values[i].Value {
				return false
			}
		}
		return annotationsEqual(x.Annotations, y.Annotations)
	case *Data:
		y, ok := b.(*Data)
		return ok && x.Name == y.Name &&
			attributesEqual(x.Attributes, y.Attributes) &&
			annotationsEqual(x.Annotations, y.Annotations)
	case *Message:
		y, ok := b.(*Message)
		return ok && x.Name == y.Name &&
			attributesEqual(x.Attributes, y.Attributes) &&
			annotationsEqual(x.Annotations, y.Annotations)
	default:
		panic("ast: unhandled declaration in Equal")
	}
}

func attributesEqual(a, b []*Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Specifier != y.Specifier || x.Type != y.Type || x.Name != y.Name {
			return false
		}
		if (x.ArraySize == nil) != (y.ArraySize == nil) {
			return false
		}
		if x.ArraySize != nil && *x.ArraySize != *y.ArraySize {
			return false
		}
		if !literalEqual(x.Default, y.Default) || !annotationsEqual(x.Annotations, y.Annotations) {
			return false
		}
	}
	return true
}

func annotationsEqual(a, b []*Annotation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !literalEqual(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

func literalEqual(a, b *Literal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind && a.Value() == b.Value()
}

package ast

// builtinTypes is the fixed set of scalar types every unit may use
// without importing anything.
var builtinTypes = map[string]bool{
	"char":   true,
	"byte":   true,
	"uint8":  true,
	"int8":   true,
	"uint16": true,
	"int16":  true,
	"uint32": true,
	"int32":  true,
	"uint64": true,
	"int64":  true,
	"float":  true,
	"string": true,
	"bool":   true,
}

// builtinOrder lists the built-in types in declaration order
var builtinOrder = []string{
	"char", "byte", "uint8", "int8", "uint16", "int16",
	"uint32", "int32", "uint64", "int64", "float", "string", "bool",
}

// enumSizes are the storage alignments an enumeration may declare
var enumSizes = map[string]bool{
	"byte":  true,
	"word":  true,
	"dword": true,
	"qword": true,
}

// IsBuiltinType reports whether name is a built-in scalar type
func IsBuiltinType(name string) bool {
	return builtinTypes[name]
}

// BuiltinTypes returns the built-in scalar types in a stable order
func BuiltinTypes() []string {
	out := make([]string, len(builtinOrder))
	copy(out, builtinOrder)
	return out
}

// IsEnumSize reports whether name is a valid enumeration alignment
func IsEnumSize(name string) bool {
	return enumSizes[name]
}

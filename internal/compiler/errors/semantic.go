package errors

import "fmt"

// Semantic error codes (SEM200-299)
const (
	// ErrDuplicateModule indicates two units declare the same module
	ErrDuplicateModule ErrorCode = "SEM201"
	// ErrUnresolvedImport indicates an imported module is not part of the batch
	ErrUnresolvedImport ErrorCode = "SEM202"
	// ErrUnresolvedType indicates an attribute type is neither built-in nor exported
	ErrUnresolvedType ErrorCode = "SEM203"
	// ErrDuplicateDeclaration indicates a second module or protocol declaration in one unit
	ErrDuplicateDeclaration ErrorCode = "SEM204"
	// ErrDuplicateEnumValue indicates an enum value name used twice in one enumeration
	ErrDuplicateEnumValue ErrorCode = "SEM205"
	// ErrDuplicateEnumNumber flags two enum values sharing a number (warning)
	ErrDuplicateEnumNumber ErrorCode = "SEM206"
)

// NewDuplicateModule creates a SEM201 error for file, naming the file
// that defined the module first
func NewDuplicateModule(loc Location, file, module, firstFile string) *CompilerError {
	return newError(
		ErrDuplicateModule,
		"duplicate_module",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Module name '%s' must be unique! It was already defined in %s", module, firstFile),
		loc,
	).WithFile(file).WithRelated(firstFile)
}

// NewUnresolvedImport creates a SEM202 error
func NewUnresolvedImport(loc Location, file, module string) *CompilerError {
	return newError(
		ErrUnresolvedImport,
		"unresolved_import",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Imported module '%s' couldn't be found", module),
		loc,
	).WithFile(file).
		WithSuggestion("Pass the file declaring the module as an input or add its directory with -I")
}

// NewUnresolvedType creates a SEM203 error
func NewUnresolvedType(loc Location, file, typeName string) *CompilerError {
	return newError(
		ErrUnresolvedType,
		"unresolved_type",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Undefined data type '%s'", typeName),
		loc,
	).WithFile(file).WithActual(quoted(typeName))
}

// NewDuplicateDeclaration creates a SEM204 error. kind is "module" or "protocol".
func NewDuplicateDeclaration(loc Location, file, kind, name, previous string) *CompilerError {
	return newError(
		ErrDuplicateDeclaration,
		"duplicate_declaration",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Duplicate %s declaration '%s'; '%s' was already declared", kind, name, previous),
		loc,
	).WithFile(file).
		WithSuggestion(fmt.Sprintf("A source file may declare at most one %s", kind))
}

// NewDuplicateEnumValue creates a SEM205 error
func NewDuplicateEnumValue(loc Location, file, enum, value string) *CompilerError {
	return newError(
		ErrDuplicateEnumValue,
		"duplicate_enum_value",
		CategorySemantic,
		SeverityError,
		fmt.Sprintf("Enum value '%s' is declared more than once in enum '%s'", value, enum),
		loc,
	).WithFile(file)
}

// NewDuplicateEnumNumber creates a SEM206 warning
func NewDuplicateEnumNumber(loc Location, file, enum, value, previous string, number int64) *CompilerError {
	return newError(
		ErrDuplicateEnumNumber,
		"duplicate_enum_number",
		CategorySemantic,
		SeverityWarning,
		fmt.Sprintf("Enum value '%s' in enum '%s' reuses %d already assigned to '%s'", value, enum, number, previous),
		loc,
	).WithFile(file)
}

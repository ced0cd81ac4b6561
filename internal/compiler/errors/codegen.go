package errors

import "fmt"

// Code generation error codes (GEN600-699)
const (
	// ErrTemplateLoad indicates a template file could not be read
	ErrTemplateLoad ErrorCode = "GEN601"
	// ErrTemplateRender indicates a template failed to compile or execute
	ErrTemplateRender ErrorCode = "GEN602"
	// ErrSQLVerify indicates rendered SQL was rejected by the database
	ErrSQLVerify ErrorCode = "GEN603"
)

// NewTemplateLoad creates a GEN601 error
func NewTemplateLoad(template string, cause error) *CompilerError {
	return newError(
		ErrTemplateLoad,
		"template_load",
		CategoryCodeGen,
		SeverityError,
		fmt.Sprintf("Template file '%s' couldn't be loaded: %v", template, cause),
		Location{},
	).WithFile(template).WithCause(cause)
}

// NewTemplateRender creates a GEN602 error. source names the unit being rendered.
func NewTemplateRender(template, source string, cause error) *CompilerError {
	return newError(
		ErrTemplateRender,
		"template_render",
		CategoryCodeGen,
		SeverityError,
		fmt.Sprintf("Rendering %s failed: %v", source, cause),
		Location{},
	).WithFile(template).WithRelated(source).WithCause(cause)
}

// NewSQLVerify creates a GEN603 error
func NewSQLVerify(output string, cause error) *CompilerError {
	return newError(
		ErrSQLVerify,
		"sql_verify",
		CategoryCodeGen,
		SeverityError,
		fmt.Sprintf("Generated SQL was rejected: %v", cause),
		Location{},
	).WithFile(output).WithCause(cause).
		WithSuggestion("Check the template output or disable verify_sql for non-SQL templates")
}

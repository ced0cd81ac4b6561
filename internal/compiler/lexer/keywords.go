package lexer

// keywords maps keyword strings to their token types for O(1) lookup
var keywords = map[string]TokenType{
	// Declarations
	"module":   TOKEN_MODULE,
	"import":   TOKEN_IMPORT,
	"protocol": TOKEN_PROTOCOL,
	"data":     TOKEN_DATA,
	"message":  TOKEN_MESSAGE,
	"enum":     TOKEN_ENUM,

	// Attribute specifiers
	"optional": TOKEN_OPTIONAL,
	"repeated": TOKEN_REPEATED,
}

// lookupKeyword checks if an identifier is a keyword
func lookupKeyword(identifier string) (TokenType, bool) {
	tokenType, ok := keywords[identifier]
	return tokenType, ok
}

// IsKeyword checks if a string is a reserved keyword
func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

package document

import (
	"fmt"
	"sort"
	"strings"
)

// Storage dialects
const (
	DialectSQL      = "sql"
	DialectPostgres = "postgres"
	DialectNone     = "none"
)

// sqlTypes are generic column types every SQL engine (SQLite included)
// accepts
var sqlTypes = map[string]string{
	"char":   "CHAR(1)",
	"byte":   "SMALLINT",
	"uint8":  "SMALLINT",
	"int8":   "SMALLINT",
	"uint16": "INTEGER",
	"int16":  "SMALLINT",
	"uint32": "BIGINT",
	"int32":  "INTEGER",
	"uint64": "BIGINT",
	"int64":  "BIGINT",
	"float":  "REAL",
	"string": "TEXT",
	"bool":   "BOOLEAN",
	// enum alignments
	"word":  "SMALLINT",
	"dword": "INTEGER",
	"qword": "BIGINT",
}

var postgresTypes = map[string]string{
	"char":   "CHAR(1)",
	"byte":   "SMALLINT",
	"uint8":  "SMALLINT",
	"int8":   "SMALLINT",
	"uint16": "INTEGER",
	"int16":  "SMALLINT",
	"uint32": "BIGINT",
	"int32":  "INTEGER",
	"uint64": "NUMERIC(20)",
	"int64":  "BIGINT",
	"float":  "DOUBLE PRECISION",
	"string": "VARCHAR(255)",
	"bool":   "BOOLEAN",
	"word":   "SMALLINT",
	"dword":  "INTEGER",
	"qword":  "BIGINT",
}

// Storage maps schema type names to storage column types
type Storage struct {
	Dialect string
	types   map[string]string
}

// Dialects returns the supported dialect names
func Dialects() []string {
	return []string{DialectSQL, DialectPostgres, DialectNone}
}

// NewStorage builds the mapping of dialect with overrides applied on top.
// An override with an empty column type removes the entry.
func NewStorage(dialect string, overrides map[string]string) (*Storage, error) {
	var base map[string]string
	switch strings.ToLower(dialect) {
	case "", DialectSQL:
		dialect, base = DialectSQL, sqlTypes
	case DialectPostgres:
		dialect, base = DialectPostgres, postgresTypes
	case DialectNone:
		dialect, base = DialectNone, nil
	default:
		return nil, fmt.Errorf("unsupported storage dialect %q (expected one of %s)",
			dialect, strings.Join(Dialects(), ", "))
	}

	types := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		types[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(types, k)
			continue
		}
		types[k] = v
	}

	return &Storage{Dialect: dialect, types: types}, nil
}

// DefaultStorage is the generic sql mapping
func DefaultStorage() *Storage {
	s, _ := NewStorage(DialectSQL, nil)
	return s
}

// Lookup returns the column type for a schema type name
func (s *Storage) Lookup(typeName string) (string, bool) {
	if s == nil {
		return "", false
	}
	t, ok := s.types[typeName]
	return t, ok
}

// Map returns the mapping as a document map
func (s *Storage) Map() Map {
	m := make(Map)
	if s == nil {
		return m
	}
	for k, v := range s.types {
		m[k] = v
	}
	return m
}

// Names returns the mapped type names in sorted order
func (s *Storage) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.types))
	for k := range s.types {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

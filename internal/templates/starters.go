package templates

// SchemaPath is where every starter puts its example schema
const SchemaPath = "schema/shapes.fmsg"

func schemaVariables() []*TemplateVariable {
	return []*TemplateVariable{
		{
			Name:     "module",
			Type:     VariableTypeString,
			Default:  "demo.shapes",
			Required: true,
			Prompt:   "Module name",
		},
		{
			Name:    "protocol",
			Type:    VariableTypeString,
			Default: "Shapes",
			Prompt:  "Protocol name",
		},
	}
}

func schemaFile() *TemplateFile {
	return &TemplateFile{
		TargetPath: SchemaPath,
		Template:   true,
		Content: `module [[.Variables.module]];
[[- if .Variables.protocol]]
protocol [[.Variables.protocol]];
[[- end]]

enum Color : byte {
    Red = 0,
    Green = 1,
    Blue = 2,
}

@table("points")
data Point {
    int32 x;
    int32 y;
}

message Draw {
    uint32 id;
    Color color;
    repeated Point[16] points;
    optional string label;
    float scale = 1.0;
}
`,
	}
}

// NewCppTemplate creates the C++ header starter
func NewCppTemplate() *Template {
	return &Template{
		Name:        "cpp",
		Description: "C++ header with enums and structs",
		Version:     "1.0.0",
		Variables:   schemaVariables(),
		Settings: Settings{
			Engine:    "go",
			Extension: "hpp",
			Template:  "templates/cpp.tmpl",
			Dialect:   "none",
		},
		Files: []*TemplateFile{
			schemaFile(),
			{
				TargetPath: "templates/cpp.tmpl",
				Content: `// Generated by flatmsgc from {{.source}}. Do not edit.
#pragma once

#include <cstdint>
#include <optional>
#include <string>
#include <vector>
{{range .imports}}
#include "{{.importName}}.hpp"
{{- end}}

namespace {{if .hasModule}}{{.moduleName}}{{else}}flatmsg{{end}} {
{{range .enums}}
enum class {{.name}} : {{template "alignment" .alignment}} {
{{- range .values}}
    {{.name}} = {{.value}},
{{- end}}
};
{{end}}
{{- range .data}}
struct {{.name}} {
{{- range .attributes}}
    {{template "field" .}}
{{- end}}
};
{{end}}
{{- range .messages}}
struct {{.name}} {
{{- range .attributes}}
    {{template "field" .}}
{{- end}}
};
{{end}}
}  // namespace
{{- define "alignment"}}{{if eq . "byte"}}std::uint8_t{{else if eq . "word"}}std::uint16_t{{else if eq . "dword"}}std::uint32_t{{else}}std::uint64_t{{end}}{{end}}
{{- define "type"}}{{if eq . "char"}}char{{else if eq . "byte" "uint8"}}std::uint8_t{{else if eq . "int8"}}std::int8_t{{else if eq . "uint16"}}std::uint16_t{{else if eq . "int16"}}std::int16_t{{else if eq . "uint32"}}std::uint32_t{{else if eq . "int32"}}std::int32_t{{else if eq . "uint64"}}std::uint64_t{{else if eq . "int64"}}std::int64_t{{else if eq . "float"}}double{{else if eq . "string"}}std::string{{else}}{{.}}{{end}}{{end}}
{{- define "field"}}{{if .isRepeated}}std::vector<{{template "type" .type}}>{{else if .isOptional}}std::optional<{{template "type" .type}}>{{else}}{{template "type" .type}}{{end}} {{.name}}{{if .hasDefaultValue}} = {{if eq .defaultValueKind "string"}}"{{.defaultValueText}}"{{else}}{{.defaultValueText}}{{end}}{{end}};{{end}}
`,
			},
		},
	}
}

// NewSQLTemplate creates the SQL DDL starter. Its output is checked
// against SQLite on every compile.
func NewSQLTemplate() *Template {
	return &Template{
		Name:        "sql",
		Description: "SQL tables for data and messages, lookup tables for enums",
		Version:     "1.0.0",
		Variables:   schemaVariables(),
		Settings: Settings{
			Engine:    "go",
			Extension: "sql",
			Template:  "templates/sql.tmpl",
			Dialect:   "sql",
			VerifySQL: true,
		},
		Files: []*TemplateFile{
			schemaFile(),
			{
				TargetPath: "templates/sql.tmpl",
				Content: `-- Generated by flatmsgc from {{.source}}. Do not edit.
{{- range $enum := .enums}}

CREATE TABLE {{snake $enum.name}}_values (
    value {{$enum.storageType}} PRIMARY KEY,
    name TEXT NOT NULL
);
{{- range $enum.values}}
INSERT INTO {{snake $enum.name}}_values (value, name) VALUES ({{.value}}, '{{.name}}');
{{- end}}
{{- end}}
{{- range .data}}
{{template "table" .}}
{{- end}}
{{- range .messages}}
{{template "table" .}}
{{- end}}
{{- define "table"}}
CREATE TABLE {{with annotationValue . "table"}}{{.}}{{else}}{{snake .name}}{{end}} (
{{- range .attributes}}
    {{.name}} {{template "column" .}}{{if not .isLast}},{{end}}
{{- end}}
);
{{- end}}
{{- define "column"}}{{if or .isRepeated .hasArraySize}}TEXT{{else if isUserDefinedData .type}}TEXT{{else if .isBuiltin}}{{storageType .type}}{{else}}INTEGER{{end}}{{if not .isOptional}} NOT NULL{{end}}{{if .hasDefaultValue}} DEFAULT {{if eq .defaultValueKind "string"}}'{{.defaultValueText}}'{{else}}{{.defaultValueText}}{{end}}{{end}}{{end}}
`,
			},
		},
	}
}

// NewLuaDocsTemplate creates the Markdown documentation starter
func NewLuaDocsTemplate() *Template {
	return &Template{
		Name:        "docs",
		Description: "Markdown reference pages rendered with the Lua engine",
		Version:     "1.0.0",
		Variables:   schemaVariables(),
		Settings: Settings{
			Engine:    "lua",
			Extension: "md",
			Template:  "templates/docs.tmpl",
			Dialect:   "none",
		},
		Files: []*TemplateFile{
			schemaFile(),
			{
				TargetPath: "templates/docs.tmpl",
				Content: `# Module {{ module.name }}

Generated by flatmsgc from {{ source }}.
{% if hasProtocol then %}
Protocol: **{{ protocol.name }}**
{% end %}
{% for _, e in ipairs(enums) do %}

## enum {{ e.name }}

Stored as {{ e.alignment }}.

| Name | Value |
| ---- | ----- |
{% for _, v in ipairs(e.values) do %}
| {{ v.name }} | {{ v.value }} |
{% end %}
{% end %}
{% for _, r in ipairs(data) do %}

## data {{ r.name }}

| Field | Type | Specifier |
| ----- | ---- | --------- |
{% for _, a in ipairs(r.attributes) do %}
| {{ a.name }} | {{ a.type }} | {{ a.specifier }} |
{% end %}
{% end %}
{% for _, r in ipairs(messages) do %}

## message {{ r.name }}

| Field | Type | Specifier |
| ----- | ---- | --------- |
{% for _, a in ipairs(r.attributes) do %}
| {{ a.name }} | {{ a.type }} | {{ a.specifier }} |
{% end %}
{% end %}
`,
			},
		},
	}
}

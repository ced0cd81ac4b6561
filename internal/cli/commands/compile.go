package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flatmessage/flatmsg/internal/cli/ui"
	"github.com/flatmessage/flatmsg/internal/compiler/driver"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
)

// NewCompileCommand creates the compile command
func NewCompileCommand(flags *globalFlags) *cobra.Command {
	f := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile <schema>[=<template>]...",
		Short: "Render schema files through templates",
		Long: `Parse the given schema files, resolve their imports and render each one
through its template. Every schema produces <output>/<name>.<extension>.

Nothing is written unless every file parses, resolves and renders.`,
		Example: `  # Render one schema with a template
  flatmsgc compile shapes.fmsg -t templates/cpp.tmpl -e hpp

  # Pair each schema with its own template
  flatmsgc compile shapes.fmsg=cpp.tmpl tables.fmsg=sql.tmpl

  # Resolve imports from a shared directory and check the SQL
  flatmsgc compile -I shared/ tables.fmsg -t sql.tmpl --verify-sql

  # Machine readable result
  flatmsgc compile shapes.fmsg --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.close()

			if err := f.apply(cmd, s.cfg); err != nil {
				return s.configFail(err)
			}
			inputs, err := parseInputs(args, s.cfg.Template, true)
			if err != nil {
				return s.fail(err)
			}
			opts, err := s.compilerOptions()
			if err != nil {
				return s.configFail(err)
			}

			result, err := driver.New(opts, driver.WithLogger(s.logger)).Compile(cmd.Context(), inputs)
			if err != nil {
				return s.fail(err)
			}
			return reportCompile(s, result)
		},
	}

	f.register(cmd)
	return cmd
}

// outputJSON is one generated file in JSON results
type outputJSON struct {
	Source string `json:"source"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
}

func outputsJSON(outputs []driver.Output) []outputJSON {
	list := make([]outputJSON, 0, len(outputs))
	for _, out := range outputs {
		list = append(list, outputJSON{Source: out.Unit.Label(), Path: out.Path, Bytes: out.Bytes})
	}
	return list
}

func warningsJSON(list cerrors.ErrorList) cerrors.ErrorList {
	if list == nil {
		return cerrors.ErrorList{}
	}
	return list
}

func reportCompile(s *session, result *driver.Result) error {
	if s.flags.json {
		return s.writeJSON(map[string]any{
			"success":     true,
			"outputs":     outputsJSON(result.Outputs),
			"warnings":    warningsJSON(result.Warnings),
			"duration_ms": result.Duration.Milliseconds(),
		})
	}

	s.warn(result.Warnings)
	ui.WriteSuccess(s.out, fmt.Sprintf("Compiled %d unit(s) into %d file(s) in %s",
		len(result.Units), len(result.Outputs), result.Duration.Round(time.Microsecond)), s.noColor())

	paths := make([]string, len(result.Outputs))
	for i, out := range result.Outputs {
		paths[i] = out.Path
	}
	ui.List(s.out, paths, s.noColor())
	return nil
}

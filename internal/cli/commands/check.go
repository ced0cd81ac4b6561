package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatmessage/flatmsg/internal/cli/ui"
	"github.com/flatmessage/flatmsg/internal/compiler/driver"
	"github.com/flatmessage/flatmsg/internal/compiler/unit"
)

// NewCheckCommand creates the check command
func NewCheckCommand(flags *globalFlags) *cobra.Command {
	var includes []string
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <schema>...",
		Short: "Parse and resolve schema files without rendering",
		Long: `Parse the given schema files, pull in imported modules from the include
directories and resolve every type. No template is needed and nothing is
written.`,
		Example: `  flatmsgc check schema/*.fmsg
  flatmsgc check -I shared/ tables.fmsg --strict-imports`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.close()

			if cmd.Flags().Changed("include") {
				s.cfg.IncludeDirs = append(s.cfg.IncludeDirs, includes...)
			}
			if cmd.Flags().Changed("strict-imports") {
				s.cfg.StrictImports = strict
			}

			inputs, err := parseInputs(args, "", false)
			if err != nil {
				return s.fail(err)
			}
			opts, err := s.compilerOptions()
			if err != nil {
				return s.configFail(err)
			}

			result, err := driver.New(opts, driver.WithLogger(s.logger)).Check(cmd.Context(), inputs)
			if err != nil {
				return s.fail(err)
			}
			return reportCheck(s, result)
		},
	}

	cmd.Flags().StringSliceVarP(&includes, "include", "I", nil, "Include directory searched for imported modules (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict-imports", false, "Resolve types only through imported modules")
	return cmd
}

// unitJSON describes a checked unit in JSON results
type unitJSON struct {
	Source      string   `json:"source"`
	Module      string   `json:"module,omitempty"`
	Protocol    string   `json:"protocol,omitempty"`
	Imports     []string `json:"imports"`
	Exports     []string `json:"exports"`
	IncludeOnly bool     `json:"include_only,omitempty"`
}

func describeUnit(u *unit.TranslationUnit) unitJSON {
	imports := u.ImportedModules
	if imports == nil {
		imports = []string{}
	}
	return unitJSON{
		Source:      u.Label(),
		Module:      u.Module,
		Protocol:    u.Protocol,
		Imports:     imports,
		Exports:     u.Exports(),
		IncludeOnly: u.IncludeOnly,
	}
}

func reportCheck(s *session, result *driver.Result) error {
	if s.flags.json {
		units := make([]unitJSON, 0, len(result.Units))
		for _, u := range result.Units {
			units = append(units, describeUnit(u))
		}
		return s.writeJSON(map[string]any{
			"success":  true,
			"units":    units,
			"warnings": warningsJSON(result.Warnings),
		})
	}

	table := ui.NewTable(s.out, s.noColor(), "Source", "Module", "Protocol", "Imports", "Exports")
	for _, u := range result.Units {
		source := u.Label()
		if u.IncludeOnly {
			source += " (include)"
		}
		table.AddRow(source, u.Module, u.Protocol,
			strings.Join(u.ImportedModules, ", "),
			fmt.Sprintf("%d", len(u.Exports())))
	}
	table.Render()
	fmt.Fprintln(s.out)

	s.warn(result.Warnings)
	ui.WriteSuccess(s.out, fmt.Sprintf("%d unit(s) checked, %d warning(s)", len(result.Units), len(result.Warnings)), s.noColor())
	return nil
}

package commands

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/flatmessage/flatmsg/internal/cli/config"
	"github.com/flatmessage/flatmsg/internal/cli/ui"
	"github.com/flatmessage/flatmsg/internal/format"
	"github.com/flatmessage/flatmsg/internal/templates"
)

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// initOptions are the answers init works from
type initOptions struct {
	starter  string
	module   string
	protocol string
	yes      bool
	force    bool
}

// NewInitCommand creates the init command
func NewInitCommand(flags *globalFlags) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a starter project",
		Long: `Create flatmsg.yaml, an example schema and a template for one of the
built-in starters:

  cpp    C++ header with enums and structs
  docs   Markdown reference pages rendered with the Lua engine
  sql    SQL tables, checked against SQLite on every compile

Without --yes the missing answers are asked for interactively.`,
		Example: `  flatmsgc init
  flatmsgc init shapes --template sql --module geo.shapes --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, flags, opts, dir)
		},
	}

	cmd.Flags().StringVarP(&opts.starter, "template", "t", "", "Starter template (cpp, docs, sql)")
	cmd.Flags().StringVar(&opts.module, "module", "", "Module name of the example schema")
	cmd.Flags().StringVar(&opts.protocol, "protocol", "", "Protocol name of the example schema")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Use defaults instead of prompting")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite existing files")
	return cmd
}

func runInit(cmd *cobra.Command, flags *globalFlags, opts *initOptions, dir string) error {
	s := &session{flags: flags, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
	registry := templates.Builtin()

	if opts.starter == "" && !opts.yes {
		prompt := &survey.Select{
			Message: "Select a starter:",
			Options: registry.Names(),
			Default: "cpp",
			Description: func(value string, _ int) string {
				if tmpl, err := registry.Get(value); err == nil {
					return tmpl.Description
				}
				return ""
			},
		}
		if err := survey.AskOne(prompt, &opts.starter); err != nil {
			return err
		}
	}
	if opts.starter == "" {
		opts.starter = "cpp"
	}

	tmpl, err := registry.Get(opts.starter)
	if err != nil {
		return s.fail(fmt.Errorf("unknown starter %q, choose one of %v", opts.starter, registry.Names()))
	}

	ctx := tmpl.NewContext()
	if err := askVariables(cmd, tmpl, ctx, opts); err != nil {
		return err
	}
	if !moduleNamePattern.MatchString(ctx.Variables["module"]) {
		return s.fail(fmt.Errorf("invalid module name %q", ctx.Variables["module"]))
	}

	configPath := filepath.Join(dir, config.FileName+".yaml")
	if existing, ok := config.Find(dir); ok && !opts.force {
		return s.fail(fmt.Errorf("%s already exists, use --force to overwrite", existing))
	}

	fs := afero.NewOsFs()
	written, err := templates.NewEngine(fs).Execute(tmpl, ctx, dir, opts.force)
	if err != nil {
		return s.fail(err)
	}

	cfg := config.Default()
	cfg.Engine = tmpl.Settings.Engine
	cfg.Extension = tmpl.Settings.Extension
	cfg.Template = tmpl.Settings.Template
	cfg.Storage.Dialect = tmpl.Settings.Dialect
	cfg.VerifySQL = tmpl.Settings.VerifySQL
	if err := config.Write(configPath, cfg); err != nil {
		return s.fail(err)
	}
	written = append(written, configPath)

	stylePath := filepath.Join(dir, format.ConfigFileName)
	if err := format.SaveConfig(fs, stylePath, format.DefaultConfig()); err != nil {
		return s.fail(err)
	}
	written = append(written, stylePath)

	if flags.json {
		return s.writeJSON(map[string]any{
			"success": true,
			"starter": tmpl.Name,
			"files":   written,
		})
	}

	ui.WriteSuccess(s.out, fmt.Sprintf("Created %s starter in %s", tmpl.Name, dir), s.noColor())
	ui.List(s.out, written, s.noColor())
	fmt.Fprintf(s.out, "\nNext: cd %s && flatmsgc compile %s\n", dir, templates.SchemaPath)
	return nil
}

// askVariables fills ctx from the flags, prompting for the rest unless
// --yes was given
func askVariables(cmd *cobra.Command, tmpl *templates.Template, ctx *templates.TemplateContext, opts *initOptions) error {
	given := map[string]string{}
	if cmd.Flags().Changed("module") {
		given["module"] = opts.module
	}
	if cmd.Flags().Changed("protocol") {
		given["protocol"] = opts.protocol
	}

	for _, v := range tmpl.Variables {
		if value, ok := given[v.Name]; ok {
			ctx.Variables[v.Name] = value
			continue
		}
		if opts.yes {
			continue
		}

		var answer string
		prompt := &survey.Input{Message: v.Prompt + ":", Default: v.Default}
		var validators []survey.Validator
		if v.Required {
			validators = append(validators, survey.Required)
		}
		if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.ComposeValidators(validators...))); err != nil {
			return err
		}
		ctx.Variables[v.Name] = answer
	}
	return nil
}

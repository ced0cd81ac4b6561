package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/flatmessage/flatmsg/internal/compiler/driver"
	"github.com/flatmessage/flatmsg/internal/format"
)

// NewFormatCommand creates the fmt command
func NewFormatCommand(flags *globalFlags) *cobra.Command {
	var write, check bool
	var styleFile string

	cmd := &cobra.Command{
		Use:     "fmt [files or directories...]",
		Aliases: []string{"format"},
		Short:   "Format schema files",
		Long: `Print schema files in canonical form.

By default, shows a diff preview of what would change without modifying files.
Use --write to apply formatting changes, or --check to verify formatting.
Directories are searched for files matching the configured include patterns.
Comments are not kept.`,
		Example: `  flatmsgc fmt                      # Show diff for all schema files
  flatmsgc fmt --write              # Format and save all files
  flatmsgc fmt --check              # Exit with error if not formatted
  flatmsgc fmt shapes.fmsg          # Format specific file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.close()

			fs := afero.NewOsFs()
			style, err := format.LoadConfig(fs, styleFile)
			if err != nil {
				return s.configFail(fmt.Errorf("failed to load %s: %w", styleFile, err))
			}

			if len(args) == 0 {
				args = []string{"."}
			}
			files, err := schemaFiles(fs, args, s.cfg.IncludePatterns)
			if err != nil {
				return s.fail(err)
			}
			if len(files) == 0 {
				return s.fail(fmt.Errorf("no schema files found"))
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			errorColor := color.New(color.FgRed, color.Bold)
			if s.noColor() {
				titleColor.DisableColor()
				errorColor.DisableColor()
			}

			unformatted, failed := 0, 0
			for _, file := range files {
				original, err := afero.ReadFile(fs, file)
				if err != nil {
					errorColor.Fprintf(s.errOut, "Error reading %s: %v\n", file, err)
					failed++
					continue
				}

				formatted, err := format.New(style).Format(string(original), file)
				if err != nil {
					s.fail(err)
					failed++
					continue
				}

				diff := format.Diff(string(original), formatted)
				if !diff.Changed {
					continue
				}
				unformatted++

				switch {
				case check:
					errorColor.Fprintf(s.errOut, "✗ %s needs formatting\n", file)
				case write:
					if err := afero.WriteFile(fs, file, []byte(formatted), 0o644); err != nil {
						errorColor.Fprintf(s.errOut, "Error writing %s: %v\n", file, err)
						failed++
						continue
					}
					fmt.Fprintf(s.out, "✓ %s formatted\n", file)
				default:
					titleColor.Fprintf(s.out, "=== %s ===\n", file)
					fmt.Fprint(s.out, diff.UnifiedDiff(file))
					fmt.Fprintf(s.out, "%s\n\n", diff.Stats())
				}
			}

			if !write && !check && unformatted > 0 {
				titleColor.Fprintln(s.out, "Run 'flatmsgc fmt --write' to apply changes")
			}
			if failed > 0 {
				return &reportedError{fmt.Errorf("%d file(s) had errors", failed)}
			}
			if check && unformatted > 0 {
				return &reportedError{fmt.Errorf("%d file(s) need formatting", unformatted)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write formatted output to files")
	cmd.Flags().BoolVar(&check, "check", false, "Check if files are formatted (exit 1 if not)")
	cmd.Flags().StringVar(&styleFile, "style", format.ConfigFileName, "Path to the formatting config file")
	return cmd
}

// schemaFiles expands directory arguments into the schema files below them
func schemaFiles(fs afero.Fs, args []string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}

	for _, arg := range args {
		info, err := fs.Stat(arg)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%s does not exist", arg)
			}
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		found, err := driver.Discover(fs, arg, patterns)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

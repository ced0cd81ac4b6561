package commands

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/flatmessage/flatmsg/internal/compiler/document"
	"github.com/flatmessage/flatmsg/internal/compiler/parser"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand(flags *globalFlags) *cobra.Command {
	var outputFormat, outputFile string

	cmd := &cobra.Command{
		Use:   "inspect <schema>",
		Short: "Print the document a template receives",
		Long: `Parse a schema file and print the document templates are rendered
against, with the configured storage type mapping applied. Use it to look
up key names while writing a template.`,
		Example: `  flatmsgc inspect shapes.fmsg
  flatmsgc inspect shapes.fmsg --format yaml -o shapes.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.close()

			storage, err := s.cfg.StorageMapping()
			if err != nil {
				return s.configFail(err)
			}

			fs := afero.NewOsFs()
			tree, err := parser.ParseFile(fs, args[0])
			if err != nil {
				return s.fail(err)
			}

			data, err := document.Serialize(document.Project(tree, document.WithStorage(storage)), outputFormat)
			if err != nil {
				return s.fail(err)
			}

			if outputFile == "" {
				_, err = s.out.Write(data)
				return err
			}
			if err := afero.WriteFile(fs, outputFile, data, 0o644); err != nil {
				return s.fail(fmt.Errorf("failed to write %s: %w", outputFile, err))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", document.FormatJSON, "Output format (json, yaml)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flatmessage/flatmsg/internal/cli/config"
	"github.com/flatmessage/flatmsg/internal/cli/ui"
	"github.com/flatmessage/flatmsg/internal/compiler/driver"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
	"github.com/flatmessage/flatmsg/internal/logging"
)

// reportedError wraps an error whose diagnostic was already written, so
// Execute does not print it a second time
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// session holds what a single command run works with
type session struct {
	flags  *globalFlags
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func newSession(cmd *cobra.Command, flags *globalFlags) (*session, error) {
	s := &session{
		flags:  flags,
		logger: zap.NewNop(),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, s.configFail(err)
	}
	s.cfg = cfg

	level := cfg.Log.Level
	if flags.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, s.configFail(err)
	}
	s.logger = logger
	return s, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

func (s *session) noColor() bool {
	return s.flags.noColor || color.NoColor
}

// fail reports err the way the output mode asks for
func (s *session) fail(err error) error {
	if s.flags.json {
		ui.WriteDiagnosticJSON(s.out, err)
	} else {
		ui.WriteDiagnostic(s.errOut, err, s.noColor())
	}
	return &reportedError{err}
}

func (s *session) configFail(err error) error {
	if s.flags.json {
		ui.WriteDiagnosticJSON(s.out, err)
	} else {
		fmt.Fprint(s.errOut, ui.ConfigError(err.Error(), s.noColor()))
	}
	return &reportedError{err}
}

func (s *session) warn(list cerrors.ErrorList) {
	if !s.flags.json {
		ui.WriteWarnings(s.errOut, list, s.noColor())
	}
}

func (s *session) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}

// compilerOptions turns the configuration into driver options
func (s *session) compilerOptions() (driver.Options, error) {
	storage, err := s.cfg.StorageMapping()
	if err != nil {
		return driver.Options{}, err
	}
	return driver.Options{
		OutputDir:       s.cfg.OutputDir,
		Extension:       s.cfg.Extension,
		Merge:           s.cfg.Merge,
		IncludeDirs:     s.cfg.IncludeDirs,
		IncludePatterns: s.cfg.IncludePatterns,
		Threads:         s.cfg.Threads,
		Engine:          s.cfg.Engine,
		Storage:         storage,
		StrictImports:   s.cfg.StrictImports,
		VerifySQL:       s.cfg.VerifySQL,
	}, nil
}

// compileFlags override configuration values for compile and watch
type compileFlags struct {
	template      string
	output        string
	extension     string
	engine        string
	includes      []string
	threads       int
	merge         bool
	verifySQL     bool
	strictImports bool
}

func (f *compileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "Template for schema files given without one")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory")
	cmd.Flags().StringVarP(&f.extension, "extension", "e", "", "Extension of generated files")
	cmd.Flags().StringVar(&f.engine, "engine", "", "Template engine (go, lua)")
	cmd.Flags().StringSliceVarP(&f.includes, "include", "I", nil, "Include directory searched for imported modules (repeatable)")
	cmd.Flags().IntVarP(&f.threads, "threads", "j", 0, "Parse and render with this many workers")
	cmd.Flags().BoolVar(&f.merge, "merge", false, "Merge all inputs into a single unit")
	cmd.Flags().BoolVar(&f.verifySQL, "verify-sql", false, "Execute generated SQL against an in-memory SQLite database")
	cmd.Flags().BoolVar(&f.strictImports, "strict-imports", false, "Resolve types only through imported modules")
}

// apply copies the flags the user set over cfg and revalidates it
func (f *compileFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("template") {
		cfg.Template = f.template
	}
	if changed("output") {
		cfg.OutputDir = f.output
	}
	if changed("extension") {
		cfg.Extension = f.extension
	}
	if changed("engine") {
		cfg.Engine = f.engine
	}
	if changed("include") {
		cfg.IncludeDirs = append(cfg.IncludeDirs, f.includes...)
	}
	if changed("threads") {
		cfg.Threads = f.threads
	}
	if changed("merge") {
		cfg.Merge = f.merge
	}
	if changed("verify-sql") {
		cfg.VerifySQL = f.verifySQL
	}
	if changed("strict-imports") {
		cfg.StrictImports = f.strictImports
	}
	return cfg.Validate()
}

// parseInputs pairs schema arguments with templates. An argument written
// schema=template names its own template; the others use defaultTemplate.
func parseInputs(args []string, defaultTemplate string, requireTemplate bool) ([]driver.Input, error) {
	inputs := make([]driver.Input, 0, len(args))
	for _, arg := range args {
		source, tmpl, paired := strings.Cut(arg, "=")
		if !paired {
			tmpl = defaultTemplate
		}
		if source == "" {
			return nil, fmt.Errorf("empty schema path in %q", arg)
		}
		if tmpl == "" && requireTemplate {
			return nil, fmt.Errorf("no template for %s: pass --template, write %s=<template> or set template in %s.yaml", source, source, config.FileName)
		}
		inputs = append(inputs, driver.Input{SourcePath: source, TemplatePath: tmpl})
	}
	return inputs, nil
}

package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flatmessage/flatmsg/internal/cli/ui"
	"github.com/flatmessage/flatmsg/internal/compiler/cache"
	"github.com/flatmessage/flatmsg/internal/compiler/driver"
	"github.com/flatmessage/flatmsg/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(flags *globalFlags) *cobra.Command {
	f := &compileFlags{}
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "watch <schema>[=<template>]...",
		Short: "Recompile whenever a schema or template changes",
		Long: `Compile the given schema files, then watch their directories, their
templates and the include directories. Every change triggers a rebuild in
which only modified files are parsed again.

Takes the same flags as compile.`,
		Example: `  flatmsgc watch shapes.fmsg -t templates/cpp.tmpl
  flatmsgc watch -I shared/ tables.fmsg=sql.tmpl --delay 250ms`,
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			compiler := driver.New(opts, driver.WithLogger(s.logger), driver.WithCache(cache.NewASTCache()))
			ic := watch.NewIncrementalCompiler(compiler, inputs, s.logger)
			reportBuild(s, ic.FullBuild(ctx))

			watcher, err := watch.NewFileWatcher(watch.Config{
				Dirs:     watch.WatchDirs(inputs),
				Trees:    s.cfg.IncludeDirs,
				Patterns: watch.WatchPatterns(inputs, s.cfg.IncludePatterns),
				Ignored:  []string{"*.swp", "*.swo", "*.tmp"},
				Delay:    delay,
				Logger:   s.logger,
			}, func(files []string) error {
				reportBuild(s, ic.IncrementalBuild(ctx, files))
				return nil
			})
			if err != nil {
				return s.fail(err)
			}
			if err := watcher.Start(); err != nil {
				return s.fail(fmt.Errorf("failed to start watcher: %w", err))
			}
			defer watcher.Stop()

			if !s.flags.json {
				fmt.Fprint(s.out, ui.Info(fmt.Sprintf("Watching %d director(ies), press Ctrl+C to stop", len(watcher.Dirs())), s.noColor()))
			}

			<-ctx.Done()
			if cmd.Context().Err() == nil && !s.flags.json {
				fmt.Fprintln(s.out, "Shutting down...")
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "Wait this long after the last change before rebuilding")
	return cmd
}

func reportBuild(s *session, result *watch.CompileResult) {
	if !result.Success {
		s.fail(result.Err)
		return
	}

	if s.flags.json {
		s.writeJSON(map[string]any{
			"success":     true,
			"changed":     result.ChangedFiles,
			"outputs":     outputsJSON(result.Outputs),
			"dropped":     result.Dropped,
			"duration_ms": result.Duration.Milliseconds(),
		})
		return
	}

	stamp := color.New(color.FgHiBlack)
	if s.noColor() {
		stamp.DisableColor()
	}
	stamp.Fprintf(s.out, "[%s] ", time.Now().Format("15:04:05"))
	ui.WriteSuccess(s.out, fmt.Sprintf("Built %d file(s) in %s", len(result.Outputs), result.Duration.Round(time.Microsecond)), s.noColor())
}

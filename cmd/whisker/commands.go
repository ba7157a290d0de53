package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/config"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/logger"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/repository"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a project (whisker.toml, images dir) and create its dataset repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			name, _ := cmd.Flags().GetString("name")
			labels, _ := cmd.Flags().GetStringSlice("label")
			out, err := initProject(dir, name, labels)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().String("name", "", "project name (default: directory name)")
	cmd.Flags().StringSlice("label", nil, "classification label (repeatable, or comma-separated)")
	_ = cmd.MarkFlagRequired("label")
	return cmd
}

// initProject scaffolds dir and initializes the repository configured in its
// whisker.toml. It returns the report to print.
func initProject(dir, name string, labels []string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("create %q: %w", abs, err)
	}

	created, err := config.ScaffoldProject(abs)
	if err != nil {
		return "", err
	}
	cfg, err := config.Load(filepath.Join(abs, config.FileName))
	if err != nil {
		return "", err
	}
	if name == "" {
		name = filepath.Base(abs)
	}

	repoDir := cfg.Resolve(cfg.Repository.Dir)
	_, err = repository.Init(repoDir, name, labels)
	switch {
	case errors.Is(err, repository.ErrExists):
	case err != nil:
		return "", err
	default:
		created = append(created, repoDir)
	}
	return formatScaffoldResult(created), nil
}

// formatScaffoldResult returns the text printed by init.
func formatScaffoldResult(created []string) string {
	if len(created) == 0 {
		return "All files already exist, nothing to create.\n"
	}
	var b strings.Builder
	for _, path := range created {
		fmt.Fprintf(&b, "Created %s\n", path)
	}
	return b.String()
}

func annotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate images from the configured source in the terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, done, err := loadProject(cmd)
			if err != nil {
				return err
			}
			defer done()
			if author, _ := cmd.Flags().GetString("author"); author != "" {
				cfg.Project.Author = author
			}
			return executeAnnotate(ctx, cfg)
		},
	}
	cmd.Flags().String("author", "", "annotator name recorded with saved annotations (overrides project.author)")
	return cmd
}

func squashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "squash",
		Short: "Merge saved sessions into the repository's dataset file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, done, err := loadProject(cmd)
			if err != nil {
				return err
			}
			defer done()
			out, err := executeSquash(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show repository and annotation progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, done, err := loadProject(cmd)
			if err != nil {
				return err
			}
			defer done()
			sum, err := collectStatus(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatStatus(sum))
			return nil
		},
	}
}

// loadProject loads whisker.toml (from --config or found upward) and opens the
// configured log file. The returned context carries the logger; done flushes it.
func loadProject(cmd *cobra.Command) (context.Context, *config.Config, func(), error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.Resolve(cfg.Log.File), cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	done := func() { _ = log.Sync() }
	return logger.ContextWithLogger(ctx, log), cfg, done, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/config"
	"github.com/loglens/loglens/internal/model"
)

func newInitCmd() *cobra.Command {
	var (
		path        string
		name        string
		projectType string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new project at --path",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolvePath(path)
			if err != nil {
				return err
			}
			if name == "" {
				name = root
			}

			reg, err := openRegistry()
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := reg.Init(cmd.Context(), root, name, parseProjectType(projectType), store); err != nil {
				return err
			}
			if err := config.WriteDefault(filepath.Join(root, ".loglens", "config.toml")); err != nil {
				return clierr.Wrap(clierr.KindStorage, "failed to write project config.toml", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized project %q at %s\n", name, root)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", ".", "project root directory")
	cmd.Flags().StringVar(&name, "name", "", "project name (default: root path)")
	cmd.Flags().StringVar(&projectType, "type", "unknown", "project type: cli, web, unknown")
	return cmd
}

func newLinkCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link an already-initialized project at --path into the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolvePath(path)
			if err != nil {
				return err
			}

			reg, err := openRegistry()
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := reg.Link(cmd.Context(), root, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "linked %s\n", root)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", ".", "project root directory")
	return cmd
}

func newUnlinkCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "unlink",
		Short: "Remove --path's project from the registry, preserving on-disk data",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolvePath(path)
			if err != nil {
				return err
			}

			reg, err := openRegistry()
			if err != nil {
				return err
			}
			if err := reg.Unlink(root); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unlinked %s\n", root)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", ".", "project root directory")
	return cmd
}

func newListProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-projects",
		Short: "List every registered project",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(reg.List(), "", "  ")
			if err != nil {
				return clierr.Wrap(clierr.KindInternal, "failed to encode project list", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newValidateLinksCmd() *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "validate-links",
		Short: "Check every registered project against its on-disk metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry()
			if err != nil {
				return err
			}

			var issues any
			if repair {
				issues = reg.ValidateAndRepair()
			} else {
				issues = reg.ValidateLinks()
			}
			data, err := json.MarshalIndent(issues, "", "  ")
			if err != nil {
				return clierr.Wrap(clierr.KindInternal, "failed to encode validation issues", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "delete registry entries whose on-disk project is missing or mismatched")
	return cmd
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", clierr.Wrap(clierr.KindInvalidInput, "invalid --path", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", clierr.Wrap(clierr.KindNotFound, "path does not exist: "+abs, err)
	}
	return abs, nil
}

func parseProjectType(s string) model.ProjectType {
	switch model.ProjectType(s) {
	case model.ProjectTypeCLI, model.ProjectTypeWeb:
		return model.ProjectType(s)
	default:
		return model.ProjectTypeUnknown
	}
}

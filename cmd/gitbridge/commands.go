package main

import (
	"github.com/spf13/cobra"

	"github.com/okanester/gitbridge/internal/git"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the git installation in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(map[string]string{
				"path":    a.client.Path(),
				"version": a.client.Version().String(),
			})
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repo(cmd.Context())
			if err != nil {
				return err
			}
			report, err := repo.Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func newLogCmd(a *app) *cobra.Command {
	var maxEntries int
	var ref string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent commits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repo(cmd.Context())
			if err != nil {
				return err
			}
			commits, err := repo.Log(cmd.Context(), git.LogOptions{
				MaxEntries: maxEntries,
				Ref:        ref,
			})
			if err != nil {
				return err
			}
			return printJSON(commits)
		},
	}
	cmd.Flags().IntVarP(&maxEntries, "max", "n", 32, "maximum number of commits")
	cmd.Flags().StringVar(&ref, "ref", "", "ref to walk from (default HEAD)")
	return cmd
}

func newBranchesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "List branches and tags with upstream tracking",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repo(cmd.Context())
			if err != nil {
				return err
			}
			branches, err := repo.GetBranches(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(branches)
		},
	}
}

func newStashesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stashes",
		Short: "List stash entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repo(cmd.Context())
			if err != nil {
				return err
			}
			stashes, err := repo.GetStashes(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(stashes)
		},
	}
}

func newRemotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remotes",
		Short: "List configured remotes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repo(cmd.Context())
			if err != nil {
				return err
			}
			remotes, err := repo.GetRemotes(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(remotes)
		},
	}
}

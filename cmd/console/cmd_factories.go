package main

import (
	"context"
	"strings"

	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/views"
	"github.com/spf13/cobra"
)

var factoriesCmd = &cobra.Command{
	Use:     "factories",
	Aliases: []string{"factory"},
	Short:   "Manage factories",
}

var factoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List factories",
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		view := views.NewFactoriesView(a.client, a.deps())
		defer view.Close()

		if err := view.Load(ctx); err != nil {
			return err
		}
		printFactories(view.Items())
		return nil
	}),
}

var factoriesCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a factory",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		view := views.NewFactoriesView(a.client, a.deps())
		defer view.Close()

		// Names are checked against the current list before submitting.
		if err := view.Load(ctx); err != nil {
			return err
		}
		created, err := view.Create(ctx, models.CreateFactoryRequest{
			Name:        args[0],
			Description: description,
		})
		if err != nil {
			return err
		}
		printInfo("ID: %d", created.ID)
		return nil
	}),
}

var factoriesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a factory with its algorithms and models",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		id, err := parseID(args[0], "factory")
		if err != nil {
			return err
		}
		view := views.NewFactoriesView(a.client, a.deps())
		defer view.Close()
		return view.Delete(ctx, id)
	}),
}

func init() {
	factoriesCmd.AddCommand(factoriesListCmd)
	factoriesCmd.AddCommand(factoriesCreateCmd)
	factoriesCmd.AddCommand(factoriesDeleteCmd)

	factoriesCreateCmd.Flags().String("description", "", "Factory description")
}

func printFactories(list []models.Factory) {
	if len(list) == 0 {
		printInfo("No factories yet.")
		return
	}
	t := newTable("ID", "NAME", "DESCRIPTION", "ALGORITHMS", "CREATED")
	for _, f := range list {
		names := make([]string, 0, len(f.Algorithms))
		for _, alg := range f.Algorithms {
			names = append(names, alg.Name)
		}
		t.row(idString(f.ID), f.Name, orDash(f.Description), orDash(strings.Join(names, ", ")), formatTime(f.CreatedAt))
	}
	t.flush()
}

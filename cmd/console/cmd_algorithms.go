package main

import (
	"context"
	"errors"

	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/views"
	"github.com/spf13/cobra"
)

var algorithmsCmd = &cobra.Command{
	Use:     "algorithms",
	Aliases: []string{"algorithm", "algs"},
	Short:   "Manage algorithms",
}

var algorithmsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List algorithms, optionally of one factory",
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		factoryID, err := factoryFlag(cmd, false)
		if err != nil {
			return err
		}

		var view *views.AlgorithmsView
		if factoryID == 0 {
			view = views.NewAllAlgorithmsView(a.client, a.deps())
		} else {
			view = views.NewAlgorithmsView(a.client, factoryID, a.deps())
		}
		defer view.Close()

		if err := view.Load(ctx); err != nil {
			return err
		}
		printAlgorithms(view.Items())
		return nil
	}),
}

var algorithmsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an algorithm under a factory",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		factoryID, err := factoryFlag(cmd, true)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")

		view := views.NewAlgorithmsView(a.client, factoryID, a.deps())
		defer view.Close()

		if err := view.Load(ctx); err != nil {
			return err
		}
		created, err := view.Create(ctx, models.CreateAlgorithmRequest{
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

var algorithmsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an algorithm with its models",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		id, err := parseID(args[0], "algorithm")
		if err != nil {
			return err
		}
		factoryID, err := factoryFlag(cmd, false)
		if err != nil {
			return err
		}
		view := views.NewAlgorithmsView(a.client, factoryID, a.deps())
		defer view.Close()
		return view.Delete(ctx, id)
	}),
}

func init() {
	algorithmsCmd.AddCommand(algorithmsListCmd)
	algorithmsCmd.AddCommand(algorithmsCreateCmd)
	algorithmsCmd.AddCommand(algorithmsDeleteCmd)

	algorithmsListCmd.Flags().String("factory", "", "Only list algorithms of this factory ID")
	algorithmsCreateCmd.Flags().String("factory", "", "Parent factory ID (required)")
	algorithmsCreateCmd.Flags().String("description", "", "Algorithm description")
	algorithmsDeleteCmd.Flags().String("factory", "", "Parent factory ID")
}

// factoryFlag reads --factory. Zero means the flag was not given.
func factoryFlag(cmd *cobra.Command, required bool) (int64, error) {
	raw, _ := cmd.Flags().GetString("factory")
	if raw == "" {
		if required {
			return 0, errors.New("--factory is required")
		}
		return 0, nil
	}
	return parseID(raw, "factory")
}

func printAlgorithms(list []models.Algorithm) {
	if len(list) == 0 {
		printInfo("No algorithms yet.")
		return
	}
	t := newTable("ID", "NAME", "FACTORY", "DESCRIPTION", "MODELS", "CREATED")
	for _, alg := range list {
		factory := "-"
		if alg.FactoryID != 0 {
			factory = idString(alg.FactoryID)
		}
		t.row(idString(alg.ID), alg.Name, factory, orDash(alg.Description), idString(int64(len(alg.Models))), formatTime(alg.CreatedAt))
	}
	t.flush()
}

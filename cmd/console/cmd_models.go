package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/views"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:     "models",
	Aliases: []string{"model"},
	Short:   "Manage models and their lifecycle stage",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models, optionally of one algorithm",
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		algorithmID, err := algorithmFlag(cmd)
		if err != nil {
			return err
		}

		var view *views.ModelsView
		if algorithmID == 0 {
			view = views.NewAllModelsView(a.client, a.deps())
		} else {
			view = views.NewModelsView(a.client, algorithmID, a.deps())
		}
		defer view.Close()

		if err := view.Load(ctx); err != nil {
			return err
		}
		printModels(view.Items())
		return nil
	}),
}

var modelsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one model with its tags and notes",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		id, err := parseID(args[0], "model")
		if err != nil {
			return err
		}
		view, model, err := openModel(ctx, cmd, a, id)
		if err != nil {
			return err
		}
		defer view.Close()

		printInfo("ID:          %d", model.ID)
		printInfo("Name:        %s", model.Name)
		printInfo("Algorithm:   %d", model.AlgorithmID)
		printInfo("Version:     %d", model.VersionNumber)
		printInfo("Stage:       %s", orDash(string(model.Stage)))
		printInfo("Description: %s", orDash(model.Description))
		printInfo("Tags:        %s", orDash(strings.Join(model.TagList(), ", ")))
		printInfo("Created:     %s", formatTime(model.CreatedAt))
		if notes := model.NoteList(); len(notes) > 0 {
			printInfo("Notes:")
			for _, note := range notes {
				printInfo("  - %s", note)
			}
		}
		return nil
	}),
}

var modelsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Register a model under an algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		algorithmID, err := algorithmFlag(cmd)
		if err != nil {
			return err
		}
		if algorithmID == 0 {
			return errors.New("--algorithm is required")
		}
		description, _ := cmd.Flags().GetString("description")
		version, _ := cmd.Flags().GetInt("version")
		stage, _ := cmd.Flags().GetString("stage")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		notes, _ := cmd.Flags().GetStringArray("note")

		view := views.NewModelsView(a.client, algorithmID, a.deps())
		defer view.Close()

		if err := view.Load(ctx); err != nil {
			return err
		}
		created, err := view.Create(ctx, models.CreateModelRequest{
			Name:          args[0],
			Description:   description,
			VersionNumber: version,
			Stage:         models.Stage(stage),
			Tags:          strings.Join(tags, ","),
			Notes:         strings.Join(notes, "\n"),
		})
		if err != nil {
			return err
		}
		printInfo("ID: %d", created.ID)
		return nil
	}),
}

var modelsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Edit a model's name, description, tags or notes",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		id, err := parseID(args[0], "model")
		if err != nil {
			return err
		}
		view, current, err := openModel(ctx, cmd, a, id)
		if err != nil {
			return err
		}
		defer view.Close()

		req := models.UpdateModelRequest{
			Name:        current.Name,
			Description: current.Description,
			Tags:        current.Tags,
			Notes:       current.Notes,
		}
		flags := cmd.Flags()
		if flags.Changed("name") {
			req.Name, _ = flags.GetString("name")
		}
		if flags.Changed("description") {
			req.Description, _ = flags.GetString("description")
		}
		if flags.Changed("tags") {
			tags, _ := flags.GetStringSlice("tags")
			req.Tags = strings.Join(tags, ",")
		}
		if flags.Changed("note") {
			notes, _ := flags.GetStringArray("note")
			req.Notes = strings.Join(notes, "\n")
		}

		_, err = view.Update(ctx, id, req)
		return err
	}),
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a model with its files",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		id, err := parseID(args[0], "model")
		if err != nil {
			return err
		}
		algorithmID, err := algorithmFlag(cmd)
		if err != nil {
			return err
		}
		view := views.NewModelsView(a.client, algorithmID, a.deps())
		defer view.Close()
		return view.Delete(ctx, id)
	}),
}

var modelsPromoteCmd = &cobra.Command{
	Use:   "promote ID",
	Short: "Move a model one stage forward",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		return moveModel(ctx, cmd, a, args[0], (*views.ModelsView).Promote)
	}),
}

var modelsRollbackCmd = &cobra.Command{
	Use:   "rollback ID",
	Short: "Move a model one stage back",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		return moveModel(ctx, cmd, a, args[0], (*views.ModelsView).Rollback)
	}),
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsCreateCmd)
	modelsCmd.AddCommand(modelsUpdateCmd)
	modelsCmd.AddCommand(modelsDeleteCmd)
	modelsCmd.AddCommand(modelsPromoteCmd)
	modelsCmd.AddCommand(modelsRollbackCmd)

	for _, c := range []*cobra.Command{modelsListCmd, modelsShowCmd, modelsCreateCmd, modelsUpdateCmd, modelsDeleteCmd, modelsPromoteCmd, modelsRollbackCmd} {
		c.Flags().String("algorithm", "", "Parent algorithm ID")
	}

	modelsCreateCmd.Flags().String("description", "", "Model description")
	modelsCreateCmd.Flags().Int("version", 1, "Version number")
	modelsCreateCmd.Flags().String("stage", string(models.StageDevelopment), "Initial stage: development, staging or production")
	modelsCreateCmd.Flags().StringSlice("tags", nil, "Comma separated tags")
	modelsCreateCmd.Flags().StringArray("note", nil, "Note line (repeatable)")

	modelsUpdateCmd.Flags().String("name", "", "New name")
	modelsUpdateCmd.Flags().String("description", "", "New description")
	modelsUpdateCmd.Flags().StringSlice("tags", nil, "Replace tags")
	modelsUpdateCmd.Flags().StringArray("note", nil, "Replace notes (repeatable)")
}

func algorithmFlag(cmd *cobra.Command) (int64, error) {
	raw, _ := cmd.Flags().GetString("algorithm")
	if raw == "" {
		return 0, nil
	}
	return parseID(raw, "algorithm")
}

// openModel returns a loaded view of the algorithm that owns id. Without
// --algorithm the owner is looked up in the list of all models.
func openModel(ctx context.Context, cmd *cobra.Command, a *app, id int64) (*views.ModelsView, models.Model, error) {
	algorithmID, err := algorithmFlag(cmd)
	if err != nil {
		return nil, models.Model{}, err
	}

	if algorithmID == 0 {
		all := views.NewAllModelsView(a.client, a.deps())
		defer all.Close()
		if err := all.Load(ctx); err != nil {
			return nil, models.Model{}, err
		}
		found, ok := all.Find(id)
		if !ok {
			return nil, models.Model{}, fmt.Errorf("model %d not found", id)
		}
		if found.AlgorithmID == 0 {
			return nil, models.Model{}, fmt.Errorf("model %d has no algorithm; pass --algorithm", id)
		}
		algorithmID = found.AlgorithmID
	}

	view := views.NewModelsView(a.client, algorithmID, a.deps())
	if err := view.Load(ctx); err != nil {
		view.Close()
		return nil, models.Model{}, err
	}
	model, ok := view.Find(id)
	if !ok {
		view.Close()
		return nil, models.Model{}, fmt.Errorf("model %d not found under algorithm %d", id, algorithmID)
	}
	return view, model, nil
}

func moveModel(ctx context.Context, cmd *cobra.Command, a *app, arg string, move func(*views.ModelsView, context.Context, int64) (models.Model, error)) error {
	id, err := parseID(arg, "model")
	if err != nil {
		return err
	}
	view, _, err := openModel(ctx, cmd, a, id)
	if err != nil {
		return err
	}
	defer view.Close()

	_, err = move(view, ctx, id)
	return err
}

func printModels(list []models.Model) {
	if len(list) == 0 {
		printInfo("No models yet.")
		return
	}
	t := newTable("ID", "NAME", "ALGORITHM", "VERSION", "STAGE", "TAGS", "CREATED")
	for _, m := range list {
		algorithm := "-"
		if m.AlgorithmID != 0 {
			algorithm = idString(m.AlgorithmID)
		}
		t.row(idString(m.ID), m.Name, algorithm, fmt.Sprintf("v%d", m.VersionNumber), orDash(string(m.Stage)), orDash(strings.Join(m.TagList(), ",")), formatTime(m.CreatedAt))
	}
	t.flush()
}

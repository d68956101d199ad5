package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexusforge/console/pkg/common/models"
	"github.com/nexusforge/console/pkg/files"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:     "files",
	Aliases: []string{"file"},
	Short:   "Manage the artifacts attached to a model",
}

var filesListCmd = &cobra.Command{
	Use:   "list MODEL_ID",
	Short: "List a model's files",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		m, err := openFiles(ctx, a, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		printFiles(m.Files())
		return nil
	}),
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload MODEL_ID PATH",
	Short: "Upload a file to a model",
	Long: fmt.Sprintf(`Upload a local file as one of the model's artifacts.

Accepted extensions per --type:
  dataset      %s
  model_file   %s
  metrics      %s
  python_code  %s`,
		strings.Join(files.AllowedExtensions(models.FileTypeDataset), " "),
		strings.Join(files.AllowedExtensions(models.FileTypeModelFile), " "),
		strings.Join(files.AllowedExtensions(models.FileTypeMetrics), " "),
		strings.Join(files.AllowedExtensions(models.FileTypePythonCode), " ")),
	Args: cobra.ExactArgs(2),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		raw, _ := cmd.Flags().GetString("type")
		if raw == "" {
			return errors.New("--type is required")
		}
		fileType, err := models.ParseFileType(raw)
		if err != nil {
			return err
		}

		m, err := openFiles(ctx, a, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		uploaded, err := m.UploadFile(ctx, args[1], fileType)
		if err != nil {
			return err
		}
		printInfo("ID: %d (%s)", uploaded.ID, formatSize(uploaded.FileSize))
		return nil
	}),
}

var filesDownloadCmd = &cobra.Command{
	Use:   "download MODEL_ID FILE_ID",
	Short: "Download a file",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		fileID, err := parseID(args[1], "file")
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = a.cfg.DownloadDir
		}
		name, _ := cmd.Flags().GetString("name")

		m, err := openFiles(ctx, a, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		path, err := m.Download(ctx, fileID, name, dir)
		if err != nil {
			return err
		}
		printSuccess("Saved %s", path)
		return nil
	}),
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete MODEL_ID FILE_ID",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		fileID, err := parseID(args[1], "file")
		if err != nil {
			return err
		}
		m, err := openFiles(ctx, a, args[0])
		if err != nil {
			return err
		}
		defer m.Close()
		return m.Delete(ctx, fileID)
	}),
}

var filesPreviewCmd = &cobra.Command{
	Use:   "preview MODEL_ID",
	Short: "Save the model's image files for viewing",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = a.cfg.DownloadDir
		}

		m, err := openFiles(ctx, a, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		previews := m.Previews(ctx)
		if len(previews) == 0 {
			printInfo("No image files to preview.")
			return nil
		}
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}
		for _, f := range m.Files() {
			data, ok := previews[f.ID]
			if !ok {
				continue
			}
			path := filepath.Join(out, fmt.Sprintf("%d-%s", f.ID, filepath.Base(f.FileName)))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			printSuccess("Preview %s", path)
		}
		return nil
	}),
}

func init() {
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesUploadCmd)
	filesCmd.AddCommand(filesDownloadCmd)
	filesCmd.AddCommand(filesDeleteCmd)
	filesCmd.AddCommand(filesPreviewCmd)

	filesUploadCmd.Flags().String("type", "", "File type: dataset, model_file, metrics or python_code")
	filesDownloadCmd.Flags().String("dir", "", "Target directory (default from config)")
	filesDownloadCmd.Flags().String("name", "", "Save under this name instead of the listed one")
	filesPreviewCmd.Flags().String("out", "", "Directory for the images (default from config)")
}

// openFiles returns a manager for the model with its file list loaded.
func openFiles(ctx context.Context, a *app, arg string) (*files.Manager, error) {
	modelID, err := parseID(arg, "model")
	if err != nil {
		return nil, err
	}
	m := files.NewManager(a.client, modelID, files.Deps{Notifier: a.notifier, Bus: a.bus})
	if err := m.Load(ctx); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func printFiles(list []models.ModelFile) {
	if len(list) == 0 {
		printInfo("No files yet.")
		return
	}
	t := newTable("ID", "NAME", "TYPE", "SIZE", "UPLOADED")
	for _, f := range list {
		t.row(idString(f.ID), f.FileName, string(f.FileType), formatSize(f.FileSize), formatTime(f.CreatedAt))
	}
	t.flush()
}

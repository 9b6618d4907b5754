package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"templateKitManager/internal/logger"
	"templateKitManager/internal/models"
	"templateKitManager/internal/services"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "kitmanager",
		Short: "Upload, preview and import template kits",
		Long: "Template Kit Manager keeps a library of template kit ZIP archives,\n" +
			"serves an admin gallery for them and imports their template definitions.",
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(), newKitsCommand(), newAdminsCommand(), newMediaCommand())
	return root
}

// withApp loads configuration, opens the app and runs fn with it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true

	config, err := LoadConfig()
	if err != nil {
		return err
	}

	log := logger.Initialize(logger.Options{
		Level:       config.LogLevel,
		Environment: config.Environment,
		File:        config.LogFile,
	})

	app, err := NewApp(config, log)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(cmd.Context(), app)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin web server",
		Example: `  # Start the server with settings from .env
  kitmanager serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Config.ValidateServer(); err != nil {
					return err
				}
				app.EnableWebLogin()

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return app.Serve(ctx)
			})
		},
	}
}

func newKitsCommand() *cobra.Command {
	kits := &cobra.Command{
		Use:   "kits",
		Short: "Manage stored template kits",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored kits, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				records, err := app.Catalog.ListKits()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "(no kits)")
					return nil
				}
				for _, kit := range records {
					fmt.Fprintf(out, "%-40s %-30s %10s  %s\n", kit.Name, kit.DisplayName, kit.Size, kit.Date)
				}
				return nil
			})
		},
	}

	upload := &cobra.Command{
		Use:   "upload <file.zip>",
		Short: "Copy a kit archive into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				name, err := app.Archives.SaveArchive(f, filepath.Base(args[0]))
				if err != nil {
					return err
				}
				path, err := app.Archives.ArchivePath(name)
				if err != nil {
					return err
				}
				if _, err := app.Previews.ExtractFromArchive(path, name); err != nil {
					app.Log.WithError(err).WithField("kit", name).Warn("Preview extraction failed")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", name)
				return nil
			})
		},
	}

	var author string
	importCmd := &cobra.Command{
		Use:   "import <kit.zip>",
		Short: "Import every template definition in a stored kit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				v := NewValidator().ValidateKitFilename(args[0], "kit")
				if v.HasErrors() {
					return fmt.Errorf("%s", v.ErrorString())
				}

				report, err := app.Importer.Import(ctx, args[0], author)
				if report != nil {
					printReport(cmd, report)
				}
				return err
			})
		},
	}
	importCmd.Flags().StringVar(&author, "author", "cli", "Author recorded on imported templates")

	remove := &cobra.Command{
		Use:     "delete <kit.zip>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored kit and its preview",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Archives.DeleteArchive(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}

	kits.AddCommand(list, upload, importCmd, remove)
	return kits
}

func printReport(cmd *cobra.Command, report *models.ImportReport) {
	out := cmd.OutOrStdout()
	for _, result := range report.Results {
		switch result.Outcome {
		case models.OutcomeImported:
			fmt.Fprintf(out, "  imported  %s -> #%d %q\n", result.File, result.Template.ID, result.Template.Title)
		default:
			fmt.Fprintf(out, "  %-8s  %s: %s\n", result.Outcome, result.File, result.Reason)
		}
	}
	fmt.Fprintf(out, "%d imported, %d skipped\n", len(report.Imported), len(report.Skipped()))
}

func newAdminsCommand() *cobra.Command {
	admins := &cobra.Command{
		Use:   "admins",
		Short: "Manage who may administer template kits",
	}

	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Grant administrator access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				v := NewValidator()
				v.ValidateRequired(args[0], "email").ValidateEmail(args[0], "email")
				if v.HasErrors() {
					return fmt.Errorf("%s", v.ErrorString())
				}
				return app.Auth.GrantAdmin(ctx, args[0], "cli")
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List administrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				all, err := app.Store.ListAdmins(ctx)
				if err != nil {
					return err
				}
				for _, a := range all {
					fmt.Fprintf(cmd.OutOrStdout(), "%-40s added by %s\n", a.Email, a.AddedBy)
				}
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <email>",
		Short: "Revoke administrator access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Store.RemoveAdmin(ctx, args[0]); err != nil {
					return err
				}
				app.Permissions.InvalidateUser(args[0])
				return nil
			})
		},
	}

	admins.AddCommand(add, list, remove)
	return admins
}

func newMediaCommand() *cobra.Command {
	media := &cobra.Command{
		Use:   "media",
		Short: "Manage the media library used for kit previews",
	}

	var url, title string
	add := &cobra.Command{
		Use:   "add <path>",
		Short: "Register an image and print its attachment id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				path, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				if _, err := os.Stat(path); err != nil {
					return services.NewError(services.KindNotFound, "Image file not found.", err)
				}

				attachment := models.Attachment{
					Path:     path,
					URL:      url,
					MimeType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
					Title:    title,
				}
				if attachment.Title == "" {
					attachment.Title = filepath.Base(path)
				}

				id, err := app.Store.AddAttachment(ctx, attachment)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	add.Flags().StringVar(&url, "url", "", "Public URL of the image")
	add.Flags().StringVar(&title, "title", "", "Title shown in the media library")

	media.AddCommand(add)
	return media
}

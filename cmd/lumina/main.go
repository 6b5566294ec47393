package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manash/lumina/internal/dataurl"
	"github.com/manash/lumina/internal/display"
	"github.com/manash/lumina/internal/gemini"
	"github.com/manash/lumina/internal/history"
	"github.com/manash/lumina/internal/image"
	"github.com/manash/lumina/internal/keys"
	"github.com/manash/lumina/internal/session"
	"github.com/manash/lumina/pkg/models"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagRatio   string
	flagOutput  string
	flagInput   string
	flagAPIKey  string
	flagVerbose bool
	flagNoSave  bool
)

// App carries the injectable dependencies so tests can stub the network and
// the history backend.
type App struct {
	Out         io.Writer
	Err         io.Writer
	NewClient   func(cfg *gemini.Config) (session.Client, error)
	OpenStorage func() (history.Storage, func() error, error)
	NewSaver    func() *image.Saver
}

func DefaultApp() *App {
	return &App{
		Out: os.Stdout,
		Err: os.Stderr,
		NewClient: func(cfg *gemini.Config) (session.Client, error) {
			return gemini.New(cfg)
		},
		OpenStorage: func() (history.Storage, func() error, error) {
			storage, err := history.NewSQLiteStorage()
			if err != nil {
				return nil, nil, err
			}
			return storage, storage.Close, nil
		},
		NewSaver: image.NewSaver,
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	rootCmd := newRootCmd(app)
	return rootCmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lumina",
		Short: "Generate and edit images with Gemini, with a local history",
		Long: `lumina turns text prompts into images using the Gemini image model and
keeps a local history of every result.

Examples:
  lumina generate "a red bicycle"
  lumina generate -r 16:9 -o sunset.png "a sunset over mountains"
  lumina edit -i photo.png "add a red hat to the person"
  lumina history list
  lumina repl`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newGenerateCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newKeysCmd(app))
	cmd.AddCommand(newReplCmd(app))

	return cmd
}

func newGenerateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate [prompt]",
		Aliases: []string{"gen", "g"},
		Short:   "Generate an image from a text prompt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args[0], models.ModeCreate, app)
		},
	}
	addGenerationFlags(cmd)
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit [prompt]",
		Aliases: []string{"e"},
		Short:   "Edit an existing image with a text prompt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args[0], models.ModeEdit, app)
		},
	}
	addGenerationFlags(cmd)
	cmd.Flags().StringVarP(&flagInput, "input", "i", "", "source image file to edit")
	cmd.MarkFlagRequired("input")
	return cmd
}

func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagRatio, "ratio", "r", "1:1", "aspect ratio (1:1, 3:4, 4:3, 9:16, 16:9)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output filename")
	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key (defaults to stored key or GEMINI_API_KEY)")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log request/response details to stderr")
	cmd.Flags().BoolVar(&flagNoSave, "no-save", false, "do not write the image to a file")
}

func runGenerate(prompt string, mode models.Mode, app *App) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ratio, err := models.ParseAspectRatio(flagRatio)
	if err != nil {
		return err
	}

	ctrl, closeStore, err := newController(app)
	if err != nil {
		return err
	}
	defer closeStore()

	ctrl.SetMode(mode)
	ctrl.SetPrompt(prompt)
	if err := ctrl.SetAspectRatio(ratio); err != nil {
		return err
	}

	if mode == models.ModeEdit {
		dataURI, err := dataurl.EncodeFile(flagInput)
		if err != nil {
			return err
		}
		ctrl.SetSourceImage(dataURI)
	}

	fmt.Fprintf(app.Out, "Generating (%s, %s)...\n", mode, ratio)

	entry, err := ctrl.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if !flagNoSave {
		path := flagOutput
		if path == "" {
			path = image.GenerateFilename(entry.URL, entry.Time())
		}
		saved, err := app.NewSaver().Save(entry.URL, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "Saved: %s\n", saved)
	}

	displayer := display.New(app.Out)
	if displayer.Enabled() {
		if err := displayer.Display(entry.URL); err != nil {
			fmt.Fprintf(app.Err, "Warning: %v\n", err)
		}
	}

	fmt.Fprintln(app.Out, "Done!")
	return nil
}

// newController wires API key, client, and history store into a session
// controller. The returned func closes the storage backend.
func newController(app *App) (*session.Controller, func(), error) {
	apiKey, _, err := keys.GetAPIKey(flagAPIKey)
	if err != nil {
		return nil, nil, err
	}

	client, err := app.NewClient(&gemini.Config{
		APIKey:  apiKey,
		Verbose: flagVerbose,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	store, closeStore, err := openHistory(app)
	if err != nil {
		return nil, nil, err
	}

	return session.NewController(client, store), closeStore, nil
}

// openHistory opens the history store. Load failures are absorbed: a broken
// history must never block generation.
func openHistory(app *App) (*history.Store, func(), error) {
	storage, closeStorage, err := app.OpenStorage()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history storage: %w", err)
	}

	store := history.NewStore(storage)
	store.Load()

	cleanup := func() {
		if closeStorage != nil {
			closeStorage()
		}
	}
	return store, cleanup, nil
}

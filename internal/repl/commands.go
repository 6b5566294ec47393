package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/manash/lumina/internal/dataurl"
	"github.com/manash/lumina/internal/image"
	"github.com/manash/lumina/internal/security"
	"github.com/manash/lumina/pkg/models"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, r *REPL, args []string) error
}

func (r *REPL) registerCommands() {
	commands := []Command{
		&CreateCommand{},
		&EditCommand{},
		&UploadCommand{},
		&ModeCommand{},
		&RatioCommand{},
		&HistoryCommand{},
		&SelectCommand{},
		&DeleteCommand{},
		&ShowCommand{},
		&SaveCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}

	for _, cmd := range commands {
		r.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			r.commands[alias] = cmd
		}
	}
}

// generate runs one request for the current mode and reports the result.
func (r *REPL) generate(ctx context.Context, prompt string) error {
	r.ctrl.SetPrompt(prompt)

	fmt.Fprintf(r.out, "Generating (%s, %s)...\n", r.ctrl.Mode(), r.ctrl.AspectRatio())

	entry, err := r.ctrl.Generate(ctx)
	if err != nil {
		return err
	}

	_, payload := dataurl.Decode(entry.URL)
	fmt.Fprintf(r.out, "Done: %s (%s)\n", entry.ID, humanize.Bytes(uint64(len(payload))))

	if r.displayer.Enabled() {
		if err := r.displayer.Display(entry.URL); err != nil {
			fmt.Fprintf(r.err, "Warning: %v\n", err)
		}
	}
	return nil
}

// resolveID matches a full id or a unique prefix against the history.
func (r *REPL) resolveID(arg string) (string, error) {
	if _, ok := r.ctrl.History().Get(arg); ok {
		return arg, nil
	}

	var match string
	for _, e := range r.ctrl.History().Entries() {
		if strings.HasPrefix(e.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("ambiguous id prefix: %s", arg)
			}
			match = e.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no history entry matches %s", arg)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// CreateCommand generates a new image from a prompt.
type CreateCommand struct{}

func (c *CreateCommand) Name() string        { return "create" }
func (c *CreateCommand) Aliases() []string   { return []string{"gen", "g"} }
func (c *CreateCommand) Description() string { return "Generate a new image from a prompt" }
func (c *CreateCommand) Usage() string       { return "create <prompt>" }

func (c *CreateCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	r.ctrl.SetMode(models.ModeCreate)
	return r.generate(ctx, strings.Join(args, " "))
}

// EditCommand modifies the uploaded source image.
type EditCommand struct{}

func (c *EditCommand) Name() string        { return "edit" }
func (c *EditCommand) Aliases() []string   { return []string{"e"} }
func (c *EditCommand) Description() string { return "Edit the uploaded source image with a prompt" }
func (c *EditCommand) Usage() string       { return "edit <prompt>" }

func (c *EditCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	r.ctrl.SetMode(models.ModeEdit)
	return r.generate(ctx, strings.Join(args, " "))
}

// UploadCommand loads a local file as the edit source.
type UploadCommand struct{}

func (c *UploadCommand) Name() string        { return "upload" }
func (c *UploadCommand) Aliases() []string   { return []string{"u"} }
func (c *UploadCommand) Description() string { return "Load a local image file as the edit source" }
func (c *UploadCommand) Usage() string       { return "upload <path>" }

func (c *UploadCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	dataURI, err := dataurl.EncodeFile(args[0])
	if err != nil {
		return err
	}

	r.ctrl.SetSourceImage(dataURI)
	r.ctrl.SetMode(models.ModeEdit)
	fmt.Fprintf(r.out, "Source image loaded: %s\n", args[0])
	return nil
}

// ModeCommand switches between create and edit.
type ModeCommand struct{}

func (c *ModeCommand) Name() string        { return "mode" }
func (c *ModeCommand) Aliases() []string   { return nil }
func (c *ModeCommand) Description() string { return "Show or switch the mode (create/edit)" }
func (c *ModeCommand) Usage() string       { return "mode [create|edit]" }

func (c *ModeCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "Mode: %s\n", r.ctrl.Mode())
		return nil
	}

	mode := models.Mode(strings.ToLower(args[0]))
	if !mode.IsValid() {
		return fmt.Errorf("invalid mode %q (create or edit)", args[0])
	}
	r.ctrl.SetMode(mode)
	fmt.Fprintf(r.out, "Mode: %s\n", mode)
	return nil
}

// RatioCommand shows or sets the aspect ratio.
type RatioCommand struct{}

func (c *RatioCommand) Name() string        { return "ratio" }
func (c *RatioCommand) Aliases() []string   { return []string{"ar"} }
func (c *RatioCommand) Description() string { return "Show or set the aspect ratio" }
func (c *RatioCommand) Usage() string       { return "ratio [1:1|3:4|4:3|9:16|16:9]" }

func (c *RatioCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "Aspect ratio: %s\n", r.ctrl.AspectRatio())
		return nil
	}

	ratio, err := models.ParseAspectRatio(args[0])
	if err != nil {
		return err
	}
	if err := r.ctrl.SetAspectRatio(ratio); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Aspect ratio: %s\n", ratio)
	return nil
}

// HistoryCommand lists past generations, newest first.
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Aliases() []string   { return []string{"h", "ls"} }
func (c *HistoryCommand) Description() string { return "List past generations" }
func (c *HistoryCommand) Usage() string       { return "history" }

func (c *HistoryCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	entries := r.ctrl.History().Entries()
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "No history yet.")
		return nil
	}

	selected, hasSelection := r.ctrl.Selected()
	for _, e := range entries {
		marker := " "
		if hasSelection && e.ID == selected.ID {
			marker = "*"
		}
		_, payload := dataurl.Decode(e.URL)
		prompt := e.Prompt
		if len(prompt) > 50 {
			prompt = prompt[:47] + "..."
		}
		fmt.Fprintf(r.out, "%s %s  %-8s  %-9s  %s  %q\n",
			marker, shortID(e.ID), e.Kind, humanize.Bytes(uint64(len(payload))),
			humanize.Time(e.Time()), prompt)
	}
	return nil
}

// SelectCommand marks a history entry as current.
type SelectCommand struct{}

func (c *SelectCommand) Name() string        { return "select" }
func (c *SelectCommand) Aliases() []string   { return []string{"sel"} }
func (c *SelectCommand) Description() string { return "Select a history entry" }
func (c *SelectCommand) Usage() string       { return "select <id>" }

func (c *SelectCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	id, err := r.resolveID(args[0])
	if err != nil {
		return err
	}
	if err := r.ctrl.Select(id); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Selected: %s\n", id)
	return nil
}

// DeleteCommand removes a history entry.
type DeleteCommand struct{}

func (c *DeleteCommand) Name() string        { return "delete" }
func (c *DeleteCommand) Aliases() []string   { return []string{"del", "rm"} }
func (c *DeleteCommand) Description() string { return "Delete a history entry" }
func (c *DeleteCommand) Usage() string       { return "delete <id>" }

func (c *DeleteCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	id, err := r.resolveID(args[0])
	if err != nil {
		return err
	}
	if err := r.ctrl.DeleteEntry(id); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Deleted: %s\n", id)
	return nil
}

// ShowCommand displays the selected entry in the terminal.
type ShowCommand struct{}

func (c *ShowCommand) Name() string        { return "show" }
func (c *ShowCommand) Aliases() []string   { return nil }
func (c *ShowCommand) Description() string { return "Display the selected image" }
func (c *ShowCommand) Usage() string       { return "show [id]" }

func (c *ShowCommand) Execute(_ context.Context, r *REPL, args []string) error {
	entry, err := r.targetEntry(args)
	if err != nil {
		return err
	}

	if !r.displayer.Enabled() {
		fmt.Fprintln(r.out, "Inline display requires a kitty-compatible terminal.")
		fmt.Fprintf(r.out, "%s: %q (%s)\n", entry.ID, entry.Prompt, entry.Kind)
		return nil
	}
	return r.displayer.Display(entry.URL)
}

// SaveCommand writes the selected entry to disk.
type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return []string{"s"} }
func (c *SaveCommand) Description() string { return "Save the selected image to a file" }
func (c *SaveCommand) Usage() string       { return "save [path]" }

func (c *SaveCommand) Execute(_ context.Context, r *REPL, args []string) error {
	entry, err := r.targetEntry(nil)
	if err != nil {
		return err
	}

	var path string
	if len(args) > 0 {
		path = args[0]
		if err := security.ValidateSavePath(path); err != nil {
			return err
		}
	} else {
		path = image.GenerateFilename(entry.URL, entry.Time())
	}

	saved, err := r.saver.Save(entry.URL, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Saved: %s\n", saved)
	return nil
}

// targetEntry resolves an optional id argument, falling back to the current
// selection.
func (r *REPL) targetEntry(args []string) (models.GeneratedImage, error) {
	if len(args) > 0 {
		id, err := r.resolveID(args[0])
		if err != nil {
			return models.GeneratedImage{}, err
		}
		entry, _ := r.ctrl.History().Get(id)
		return entry, nil
	}

	entry, ok := r.ctrl.Selected()
	if !ok {
		return models.GeneratedImage{}, fmt.Errorf("no image selected (use 'select <id>')")
	}
	return entry, nil
}

// HelpCommand lists the available commands.
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	commands := []Command{
		&CreateCommand{},
		&EditCommand{},
		&UploadCommand{},
		&ModeCommand{},
		&RatioCommand{},
		&HistoryCommand{},
		&SelectCommand{},
		&DeleteCommand{},
		&ShowCommand{},
		&SaveCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}

	fmt.Fprintln(r.out, "Commands:")
	for _, cmd := range commands {
		aliases := ""
		if len(cmd.Aliases()) > 0 {
			aliases = " (" + strings.Join(cmd.Aliases(), ", ") + ")"
		}
		fmt.Fprintf(r.out, "  %-28s %s%s\n", cmd.Usage(), cmd.Description(), aliases)
	}
	return nil
}

// QuitCommand exits the loop.
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit interactive mode" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	r.Stop()
	return nil
}

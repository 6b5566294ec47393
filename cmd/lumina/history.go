package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/manash/lumina/internal/dataurl"
)

var flagHistoryOutput string

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse the local generation history",
	}

	cmd.AddCommand(newHistoryListCmd(app))
	cmd.AddCommand(newHistoryShowCmd(app))
	cmd.AddCommand(newHistoryDeleteCmd(app))
	cmd.AddCommand(newHistoryClearCmd(app))

	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List past generations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openHistory(app)
			if err != nil {
				return err
			}
			defer closeStore()

			entries := store.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(app.Out, "No history yet.")
				return nil
			}

			for _, e := range entries {
				_, payload := dataurl.Decode(e.URL)
				fmt.Fprintf(app.Out, "%s  %-8s  %-9s  %-14s  %q\n",
					e.ID, e.Kind, humanize.Bytes(uint64(len(payload))),
					humanize.Time(e.Time()), e.Prompt)
			}
			return nil
		},
	}
}

func newHistoryShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a history entry, optionally saving it to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openHistory(app)
			if err != nil {
				return err
			}
			defer closeStore()

			entry, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("no history entry with id %s", args[0])
			}

			mime, payload := dataurl.Decode(entry.URL)
			fmt.Fprintf(app.Out, "ID:        %s\n", entry.ID)
			fmt.Fprintf(app.Out, "Kind:      %s\n", entry.Kind)
			fmt.Fprintf(app.Out, "Prompt:    %s\n", entry.Prompt)
			fmt.Fprintf(app.Out, "Created:   %s (%s)\n",
				entry.Time().Format("2006-01-02 15:04:05"), humanize.Time(entry.Time()))
			fmt.Fprintf(app.Out, "Image:     %s, %s\n", mime, humanize.Bytes(uint64(len(payload))))
			if entry.OriginalImage != "" {
				srcMime, srcPayload := dataurl.Decode(entry.OriginalImage)
				fmt.Fprintf(app.Out, "Source:    %s, %s\n", srcMime, humanize.Bytes(uint64(len(srcPayload))))
			}

			if flagHistoryOutput != "" {
				saved, err := app.NewSaver().Save(entry.URL, flagHistoryOutput)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Saved: %s\n", saved)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagHistoryOutput, "output", "o", "", "save the image to this file")
	return cmd
}

func newHistoryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a history entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openHistory(app)
			if err != nil {
				return err
			}
			defer closeStore()

			if _, ok := store.Get(args[0]); !ok {
				fmt.Fprintf(app.Out, "No entry with id %s\n", args[0])
				return nil
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Deleted: %s\n", args[0])
			return nil
		},
	}
}

func newHistoryClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the entire history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openHistory(app)
			if err != nil {
				return err
			}
			defer closeStore()

			n := store.Len()
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Removed %d entries.\n", n)
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manash/lumina/internal/keys"
)

func newKeysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the stored API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store the Gemini API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			if err := store.Set(keys.Provider, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Stored key for %s in %s\n", keys.Provider, store.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the stored API key (masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			key, err := store.Get(keys.Provider)
			if err != nil {
				return err
			}
			if key == "" {
				fmt.Fprintf(app.Out, "No key stored for %s\n", keys.Provider)
				return nil
			}
			fmt.Fprintf(app.Out, "%s: %s\n", keys.Provider, keys.MaskKey(key))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			if err := store.Delete(keys.Provider); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Deleted key for %s\n", keys.Provider)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List providers with stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			providers, err := store.List()
			if err != nil {
				return err
			}
			if len(providers) == 0 {
				fmt.Fprintln(app.Out, "No keys stored.")
				return nil
			}
			for _, p := range providers {
				fmt.Fprintln(app.Out, p)
			}
			return nil
		},
	})

	return cmd
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dori/simplr/internal/app"
	"github.com/spf13/cobra"
)

func newCategoriesCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "List and manage categories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCOLOR\tKIND")
				for _, c := range a.Store.Categories() {
					kind := "built-in"
					if c.IsCustom {
						kind = "custom"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.ColorKey, kind)
				}
				return tw.Flush()
			})
		},
	}

	var color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a custom category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				c, err := a.Store.CreateCategory(cmd.Context(), args[0], color)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created category: %s\n", c.Name)
				return nil
			})
		},
	}
	add.Flags().StringVar(&color, "color", "gray", "Color key (red, orange, yellow, green, blue, purple, pink, teal, gray)")

	rm := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a custom category; its tasks become uncategorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				c, ok := a.Store.FindCategory(args[0])
				if !ok {
					return fmt.Errorf("unknown category %q", args[0])
				}
				if err := a.Store.DeleteCategory(cmd.Context(), c.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted category: %s\n", c.Name)
				return nil
			})
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

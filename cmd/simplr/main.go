package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/simplr/internal/app"
	"github.com/dori/simplr/internal/config"
	"github.com/dori/simplr/internal/ui"
	"github.com/dori/simplr/internal/ui/theme"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, themeName string

	root := &cobra.Command{
		Use:   "simplr",
		Short: "simplr - a small todo list with reminders",
		Long: `simplr keeps a list of tasks with categories, due dates and reminders.

Completed tasks are kept for seven days and then cleared automatically.
Run without arguments to start the terminal UI.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if themeName != "" {
				cfg.Theme = themeName
			}
			return runTUI(cfg)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file")
	root.Flags().StringVar(&themeName, "theme", "", "Theme name (nord, dracula, gruvbox, catppuccin)")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		newAddCmd(load),
		newListCmd(load),
		newDoneCmd(load),
		newRemoveCmd(load),
		newCategoriesCmd(load),
		newMaintainCmd(load),
		newConfigCmd(&configPath, load),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simplr v%s\n", version)
		},
	}
}

func runTUI(cfg *config.Config) error {
	t, ok := theme.ByName(cfg.Theme)
	if !ok {
		return fmt.Errorf("unknown theme %q", cfg.Theme)
	}
	theme.SetTheme(t)

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Start(); err != nil {
		return err
	}

	p := tea.NewProgram(
		ui.NewRootModel(application),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	_, err = p.Run()
	return err
}

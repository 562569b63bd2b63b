package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dori/simplr/internal/app"
	"github.com/dori/simplr/internal/category"
	"github.com/dori/simplr/internal/config"
	"github.com/dori/simplr/internal/db"
	"github.com/dori/simplr/internal/lifecycle"
	"github.com/dori/simplr/internal/logging"
	"github.com/dori/simplr/internal/model"
	"github.com/dori/simplr/internal/quickadd"
	"github.com/dori/simplr/internal/store"
	"github.com/spf13/cobra"
)

type configLoader func() (*config.Config, error)

// withApp opens the app (taking the instance lock) for a one-shot command
func withApp(load configLoader, fn func(a *app.App) error) error {
	return withMaintainedApp(load, func(a *app.App, _ lifecycle.Report) error {
		return fn(a)
	})
}

// withMaintainedApp opens the app and runs the start-up maintenance pass
// before fn, so expired tasks are gone before the command sees them.
// Overdue notifications are left to the TUI.
func withMaintainedApp(load configLoader, fn func(a *app.App, report lifecycle.Report) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Store.PerformMaintenance(time.Now())
	if err != nil && !errors.Is(err, lifecycle.ErrReminder) {
		return fmt.Errorf("maintenance: %w", err)
	}
	if err != nil {
		a.Log.Warn("start-up maintenance", "error", err)
	}
	return fn(a, report)
}

func newAddCmd(load configLoader) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <task>",
		Short: "Quick add a task",
		Long: `Quick add a task.

  Category:  @work @deep_work       (underscores become spaces)
  Due date:  due:tomorrow due:friday due:2026-01-15
  Reminder:  remind:45m remind:17:30 remind:friday@9:00`,
		Example: `  simplr add "Buy groceries"
  simplr add Review PR @work due:tomorrow remind:16:00`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				out := cmd.OutOrStdout()
				now := time.Now()
				parsed := quickadd.Parse(strings.Join(args, " "), now)

				draft := store.Draft{
					Title:        parsed.Title,
					Description:  description,
					DueDate:      parsed.DueDate,
					ReminderDate: parsed.ReminderDate,
				}
				if parsed.Category != "" {
					cat, ok := a.Store.FindCategory(parsed.Category)
					if !ok {
						return fmt.Errorf("unknown category %q", parsed.Category)
					}
					draft.CategoryID = &cat.ID
				}

				task, err := a.Store.CreateTask(draft)
				if err != nil && !errors.Is(err, lifecycle.ErrReminder) {
					return err
				}

				fmt.Fprintf(out, "Created: %s (%s)\n", task.Title, shortID(task.ID))
				if task.CategoryID != nil {
					fmt.Fprintf(out, "Category: %s\n", a.Store.CategoryOf(task).Name)
				}
				if task.DueDate != nil {
					fmt.Fprintf(out, "Due: %s\n", quickadd.FormatDue(*task.DueDate, now))
				}
				if at, ok := task.ActiveReminder(now); ok {
					fmt.Fprintf(out, "Reminder: %s\n", at.Format("Mon Jan 2 15:04"))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	return cmd
}

func newListCmd(load configLoader) *cobra.Command {
	var (
		showDone    bool
		showAll     bool
		overdueOnly bool
		categoryArg string
		limit       uint64
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			// Read-only: no instance lock needed
			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cats := category.NewStore(database, logging.Discard())
			if _, err := cats.LoadAll(ctx); err != nil {
				return err
			}

			now := time.Now()
			filter := db.TaskFilter{Limit: limit}
			switch {
			case showAll:
			case showDone:
				done := true
				filter.Completed = &done
			default:
				pending := false
				filter.Completed = &pending
			}
			if overdueOnly {
				pending := false
				filter.Completed = &pending
				filter.DueBefore = &now
			}
			if categoryArg != "" {
				cat, ok := cats.FindByName(categoryArg)
				if !ok {
					return fmt.Errorf("unknown category %q", categoryArg)
				}
				filter.CategoryID = &cat.ID
			}

			// Completed tasks past the retention window are only removed by
			// a locked run, so skip them here and apply the limit afterwards.
			if filter.Completed == nil || *filter.Completed {
				filter.Limit = 0
			}
			tasks, err := database.ListTasks(ctx, filter)
			if err != nil {
				return err
			}
			tasks = retained(tasks, now)
			if limit > 0 && uint64(len(tasks)) > limit {
				tasks = tasks[:limit]
			}
			printTasks(cmd.OutOrStdout(), tasks, cats, now)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDone, "done", false, "Show completed tasks only")
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "Show pending and completed tasks")
	cmd.Flags().BoolVar(&overdueOnly, "overdue", false, "Show overdue tasks only")
	cmd.Flags().StringVarP(&categoryArg, "category", "c", "", "Filter by category name")
	cmd.Flags().Uint64VarP(&limit, "limit", "n", 0, "Maximum number of tasks")
	return cmd
}

// retained drops tasks that are due for eviction
func retained(tasks []model.Task, now time.Time) []model.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if !t.IsEvictable(now) {
			out = append(out, t)
		}
	}
	return out
}

func printTasks(w io.Writer, tasks []model.Task, cats *category.Store, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tCATEGORY\tDUE\tREMINDER")
	for _, t := range tasks {
		status := "pending"
		switch {
		case t.IsCompleted:
			status = "done"
		case t.IsOverdue(now):
			status = "overdue"
		}
		due := "-"
		if t.DueDate != nil {
			due = quickadd.FormatDue(*t.DueDate, now)
		}
		remind := "-"
		if at, ok := t.ActiveReminder(now); ok {
			remind = at.Format("Jan 2 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), status, t.Title, cats.Resolve(t.CategoryID).Name, due, remind)
	}
	tw.Flush()
}

func newDoneCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				task, err := a.Store.FindTask(args[0])
				if err != nil {
					return err
				}
				task, tr, err := a.Store.ToggleCompletion(task.ID)
				if err != nil && !errors.Is(err, lifecycle.ErrReminder) {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", tr, task.Title)
				return nil
			})
		},
	}
}

func newRemoveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				task, err := a.Store.FindTask(args[0])
				if err != nil {
					return err
				}
				if err := a.Store.DeleteTask(task.ID); err != nil && !errors.Is(err, lifecycle.ErrReminder) {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", task.Title)
				return nil
			})
		},
	}
}

func newMaintainCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "Clear completed tasks older than a week and report overdue tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintainedApp(load, func(a *app.App, report lifecycle.Report) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Migrated: %d\n", len(report.Migrated))
				fmt.Fprintf(out, "Evicted:  %d\n", len(report.Evicted))
				fmt.Fprintf(out, "Overdue:  %d\n", len(report.Overdue))
				for _, t := range report.Overdue {
					fmt.Fprintf(out, "  %s  %s\n", shortID(t.ID), t.Title)
				}
				if report.ReminderErr != nil {
					fmt.Fprintf(out, "Warning: %v\n", report.ReminderErr)
				}
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/query"
	"todo-manager/backend/internal/store"
	"todo-manager/backend/internal/validation"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func listCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			priority, _ := cmd.Flags().GetString("priority")
			search, _ := cmd.Flags().GetString("search")
			sortBy, _ := cmd.Flags().GetString("sort")

			spec, err := query.ParseSpec(status, priority, search, sortBy)
			if err != nil {
				return err
			}

			st, closeFn, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			tasks := query.Apply(st.List(), spec)
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			return printTable(cmd.OutOrStdout(), tasks)
		},
	}

	cmd.Flags().String("status", "All", "Status filter: All, Pending, Completed")
	cmd.Flags().String("priority", "All", "Priority filter: All, High, Medium, Low")
	cmd.Flags().String("search", "", "Case-insensitive match on title or description")
	cmd.Flags().String("sort", "dueDate", "Sort key: dueDate or priority")

	return cmd
}

func addCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var form validation.TaskForm
			form.Title, _ = cmd.Flags().GetString("title")
			form.Description, _ = cmd.Flags().GetString("description")
			form.Status, _ = cmd.Flags().GetString("status")
			form.Priority, _ = cmd.Flags().GetString("priority")
			form.DueDate, _ = cmd.Flags().GetString("due")

			form.ApplyDefaults(time.Now())
			if err := validation.New().Struct(form); err != nil {
				return err
			}

			st, closeFn, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := st.Create(cmd.Context(), form.Input())
			if err != nil {
				return mutationErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d\n", task.ID)
			return nil
		},
	}

	cmd.Flags().String("title", "", "Title (required)")
	cmd.Flags().String("description", "", "Description (required)")
	cmd.Flags().String("status", "", "Pending, In Progress or Completed (default Pending)")
	cmd.Flags().String("priority", "", "High, Medium or Low (default Medium)")
	cmd.Flags().String("due", "", "Due date as YYYY-MM-DD (default today)")

	return cmd
}

func editCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change selected fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var form validation.PatchForm
			form.Title = changedString(cmd, "title")
			form.Description = changedString(cmd, "description")
			form.Status = changedString(cmd, "status")
			form.Priority = changedString(cmd, "priority")
			form.DueDate = changedString(cmd, "due")

			if err := validation.New().Struct(form); err != nil {
				return err
			}
			patch := form.Patch()
			if patch.Empty() {
				return fmt.Errorf("nothing to change, pass at least one of --title, --description, --status, --priority, --due")
			}

			st, closeFn, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := st.Update(cmd.Context(), id, patch)
			if err != nil {
				return mutationErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", task.ID)
			return nil
		},
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().String("status", "", "New status")
	cmd.Flags().String("priority", "", "New priority")
	cmd.Flags().String("due", "", "New due date (YYYY-MM-DD)")

	return cmd
}

func toggleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between Pending and Completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, closeFn, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := st.ToggleStatus(cmd.Context(), id)
			if err != nil {
				return mutationErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", task.ID, task.Status)
			return nil
		},
	}
}

func showCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print every field of one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, closeFn, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			task, ok := st.Get(id)
			if !ok {
				return fmt.Errorf("task %d: %w", id, store.ErrTaskNotFound)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %d\n", task.ID)
			fmt.Fprintf(out, "Title:       %s\n", task.Title)
			fmt.Fprintf(out, "Description: %s\n", task.Description)
			fmt.Fprintf(out, "Status:      %s\n", task.Status)
			fmt.Fprintf(out, "Priority:    %s\n", task.Priority)
			fmt.Fprintf(out, "Due:         %s\n", task.DueDate)
			return nil
		},
	}
}

func rmCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task (requires --yes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, closeFn, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			task, ok := st.Get(id)
			if !ok {
				return fmt.Errorf("task %d: %w", id, store.ErrTaskNotFound)
			}

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("refusing to delete %q without --yes", task.Title)
			}

			if err := st.Delete(cmd.Context(), id); err != nil {
				return mutationErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Confirm the deletion")

	return cmd
}

func exportCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task to stdout as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown export format %q, use json or yaml", format)
			}

			st, closeFn, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			tasks := st.List()
			out := cmd.OutOrStdout()

			if format == "yaml" {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(tasks); err != nil {
					return err
				}
				return enc.Close()
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(tasks)
		},
	}

	cmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")

	return cmd
}

func printTable(w io.Writer, tasks []models.Task) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority, t.DueDate)
	}
	return tw.Flush()
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

// changedString returns the flag value only when the user set it.
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

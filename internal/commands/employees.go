package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/timecard-reconciler/internal/config"
	"github.com/garyjia/timecard-reconciler/internal/container"
)

func newEmployeesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Manage the database allowlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the active employees with the names in an allowlist file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), a, func(c *container.Container) error {
				n, err := c.Services().Employee.ImportFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d active employees\n", n)
				return nil
			})
		},
	})

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), a, func(c *container.Container) error {
				employees, err := c.Services().Employee.List(cmd.Context(), !all)
				if err != nil {
					return err
				}
				for _, e := range employees {
					status := "ativo"
					if !e.Active {
						status = "inativo"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Name, status)
				}
				return nil
			})
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include inactive employees")
	cmd.AddCommand(list)

	return cmd
}

// withDatabase starts a container with persistence enabled and the file
// allowlist disabled, since only the employee store is needed.
func withDatabase(ctx context.Context, a *app, fn func(*container.Container) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := *a.cfg
	cfg.Database.Enabled = true
	cfg.Allowlist.Source = config.AllowlistSourceNone

	c, err := container.NewContainer(&cfg, a.logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

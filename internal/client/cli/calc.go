package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/calckeeper/internal/client/client"
	"github.com/dmitrijs2005/calckeeper/internal/filex"
	"github.com/spf13/cobra"
)

// calcCommand groups the calculation commands. All of them need a session.
func (a *App) calcCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Browse, read, edit, add and delete calculations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			return a.requireSession()
		},
	}

	cmd.AddCommand(
		a.calcAddCommand(),
		a.calcListCommand(),
		a.calcGetCommand(),
		a.calcUpdateCommand(),
		a.calcDeleteCommand(),
		a.calcClearCommand(),
		a.calcSummaryCommand(),
		a.calcExportCommand(),
	)
	return cmd
}

func parseNumbers(args []string) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, s := range args {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", part)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (a *App) calcAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add TYPE NUMBER NUMBER...",
		Short: "Compute and store a calculation",
		Long: `Compute and store a calculation. TYPE is addition, subtraction,
multiplication or division, or one of the short forms add, subtract, multiply
and divide (case-insensitive). Numbers may be separate arguments or
comma-separated.`,
		Example: `  calckeeper calc add add 10 5 3
  calckeeper calc add divide 100,4
  calckeeper calc add subtract -5 3`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseNumbers(args[1:])
			if err != nil {
				return err
			}
			calc, err := a.api.AddCalculation(cmd.Context(), args[0], inputs)
			if err != nil {
				return err
			}
			printCalculation(cmd.OutOrStdout(), calc)
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *App) calcListCommand() *cobra.Command {
	var q client.ListQuery

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your calculations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calcs, err := a.api.ListCalculations(cmd.Context(), q)
			if err != nil {
				return err
			}
			printCalculations(cmd.OutOrStdout(), calcs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.Type, "type", "t", "", "only show calculations of this type")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of rows (server default when 0)")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "rows to skip")
	return cmd
}

func (a *App) calcGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one calculation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := a.api.GetCalculation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printCalculation(cmd.OutOrStdout(), calc)
			return nil
		},
	}
}

func (a *App) calcUpdateCommand() *cobra.Command {
	var (
		typ     string
		inputs  []string
		version int64
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the type or inputs of a calculation and recompute it",
		Example: `  calckeeper calc update 3f2a... --type multiply
  calckeeper calc update 3f2a... --inputs 2,3,4 --version 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd client.CalculationUpdate
			if cmd.Flags().Changed("type") {
				upd.Type = &typ
			}
			if cmd.Flags().Changed("inputs") {
				nums, err := parseNumbers(inputs)
				if err != nil {
					return err
				}
				upd.Inputs = nums
			}
			if upd.Type == nil && upd.Inputs == nil {
				return errors.New("nothing to update: pass --type and/or --inputs")
			}
			upd.Version = version

			calc, err := a.api.UpdateCalculation(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			printCalculation(cmd.OutOrStdout(), calc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "new operation type")
	cmd.Flags().StringSliceVarP(&inputs, "inputs", "i", nil, "new operands, comma-separated")
	cmd.Flags().Int64Var(&version, "version", 0, "expected current version; the update fails if it has changed")
	return cmd
}

func (a *App) calcDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete one calculation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteCalculation(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *App) calcClearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all of your calculations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if !yes {
				answer, err := GetSimpleText(a.reader, "Delete ALL calculations? Type 'yes' to confirm", w)
				if err != nil {
					return err
				}
				if answer != "yes" {
					fmt.Fprintln(w, "Aborted")
					return nil
				}
			}

			n, err := a.api.ClearCalculations(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Deleted %d calculation(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *App) calcSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count your calculations by type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.api.Summary(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func (a *App) calcExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your calculations to object storage and print a download link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.api.Export(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Exported %d calculation(s) to %s\n", e.Calculations, e.Key)

			if output == "" {
				fmt.Fprintf(w, "Download (valid until %s):\n%s\n", formatTime(e.ExpiresAt), e.URL)
				return nil
			}

			data, err := a.download(cmd.Context(), e.URL)
			if err != nil {
				return fmt.Errorf("download export: %w", err)
			}
			if err := filex.WriteFileAtomic(output, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(w, "Saved to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "also download the export document to this file")
	return cmd
}

package cli

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-steps/pkg/step"
)

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List registered step types",
		Long: `List every registered step type with its parent, its input and output fields and the
number of lifecycle wrappers around its execute. Required fields are marked with *.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Type", "Parent", "Abstract", "Wrapped", "Inputs", "Outputs")

			for _, typ := range a.registry.Types() {
				parent := "-"
				if typ.Parent() != nil {
					parent = typ.Parent().Name()
				}

				err := table.Append([]string{
					typ.Name(),
					parent,
					strconv.FormatBool(typ.Abstract()),
					strconv.Itoa(typ.WrapCount()),
					fieldList(typ.Inputs()),
					fieldList(typ.Outputs()),
				})
				if err != nil {
					return errors.Wrap(err, "unable to add row")
				}
			}

			return errors.Wrap(table.Render(), "unable to render types")
		},
	}
}

func fieldList(schema *step.Schema) string {
	names := make([]string, 0, schema.Len())

	for _, field := range schema.Fields() {
		name := field.Name
		if field.Required {
			name += "*"
		}

		names = append(names, name)
	}

	return strings.Join(names, ", ")
}

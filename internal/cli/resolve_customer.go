package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Cobranca-api/internal/bootstrap"
)

var resolveCustomerCmd = &cobra.Command{
	Use:   "resolve-customer <subscriber_id>",
	Short: "Crea o actualiza el cliente del suscriptor en el gateway",
	Long: `Busca el cliente por CPF/CNPJ en el gateway, lo crea si no existe o actualiza
sus datos si ya existe, y guarda el id en el suscriptor. Repetirlo es seguro.`,
	Example: `  cobranca resolve-customer 3f6c1d2e-8a41-4b8e-9c55-0d6f2b7a9e10`,
	Args:    cobra.ExactArgs(1),
	RunE:    runResolveCustomer,
}

func init() {
	rootCmd.AddCommand(resolveCustomerCmd)
}

func runResolveCustomer(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		customerID, err := c.Customers.ResolveCustomer(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), customerID)
		return nil
	})
}

package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Cobranca-api/internal/bootstrap"
)

var payoutCmd = &cobra.Command{
	Use:   "payout <originator_id>",
	Short: "Transfiere comisión a la llave PIX de un consultor",
	Long: `Envía una transferencia por el gateway a la llave PIX registrada del consultor.
No genera asiento en el libro de comisiones.`,
	Example: `  cobranca payout 7b0e2c4a-51f3-4d0e-a3c2-6f9d8e1b2a44 --value 152.30`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPayout,
}

func init() {
	rootCmd.AddCommand(payoutCmd)

	payoutCmd.Flags().String("value", "", "Valor a transferir en R$ (ej: 152.30)")
	_ = payoutCmd.MarkFlagRequired("value")
}

func runPayout(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("value")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("--value inválido: %w", err)
	}

	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		t, err := c.Commission.Payout(ctx, args[0], value)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "transferencia %s (%s) por %s\n", t.ID, t.Status, value.StringFixed(2))
		return nil
	})
}

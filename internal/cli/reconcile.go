package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Cobranca-api/internal/bootstrap"
	"github.com/jhoicas/Cobranca-api/pkg/logger"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Ejecuta un ciclo de reconciliación con el gateway",
	Long: `Resuelve las emisiones con resultado desconocido (timeout o fallo de red)
consultando el gateway por externalReference, y resincroniza el estado de los
cobros abiertos cuyo webhook pudo haberse perdido.`,
	Example: `  cobranca reconcile`,
	Args:    cobra.NoArgs,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("reconcile")

	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		report, err := c.Reconcile.RunOnce(ctx)

		log.Info().
			Int64("attempts_adopted", report.AttemptsAdopted).
			Int64("attempts_failed", report.AttemptsFailed).
			Int64("synced", report.Synced).
			Int64("skipped", report.Skipped).
			Int64("errors", report.Errors).
			Msg("reconciliación finalizada")

		fmt.Fprintf(cmd.OutOrStdout(), "adoptados=%d fallidos=%d sincronizados=%d omitidos=%d errores=%d\n",
			report.AttemptsAdopted, report.AttemptsFailed, report.Synced, report.Skipped, report.Errors)
		return err
	})
}

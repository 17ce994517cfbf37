package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Cobranca-api/internal/domain/billing"
)

const dateLayout = "2006-01-02"

var dueDateCmd = &cobra.Command{
	Use:   "due-date",
	Short: "Calcula el próximo vencimiento de un cobro consolidado",
	Long: fmt.Sprintf(`Devuelve la próxima fecha con el día indicado, estrictamente posterior a hoy
y con al menos %d días de anticipación. Días que no existen en el mes se
recortan al último día (31 en febrero → 28/29).`, billing.MinLeadDays),
	Example: `  cobranca due-date --day 10
  cobranca due-date --day 31 --at 2026-02-01`,
	Args: cobra.NoArgs,
	RunE: runDueDate,
}

func init() {
	rootCmd.AddCommand(dueDateCmd)

	dueDateCmd.Flags().Int("day", 0, "Día de vencimiento del suscriptor (1-31)")
	dueDateCmd.Flags().String("at", "", "Fecha de referencia (YYYY-MM-DD, por defecto: hoy)")
	_ = dueDateCmd.MarkFlagRequired("day")
}

func runDueDate(cmd *cobra.Command, _ []string) error {
	day, _ := cmd.Flags().GetInt("day")
	at, _ := cmd.Flags().GetString("at")

	if day < 1 || day > 31 {
		return fmt.Errorf("--day debe estar entre 1 y 31")
	}
	now := time.Now()
	if at != "" {
		parsed, err := time.Parse(dateLayout, at)
		if err != nil {
			return fmt.Errorf("--at inválido, use YYYY-MM-DD: %w", err)
		}
		now = parsed
	}

	fmt.Fprintln(cmd.OutOrStdout(), billing.NextConsolidatedDueDate(day, now).Format(dateLayout))
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Cobranca-api/pkg/config"
	"github.com/jhoicas/Cobranca-api/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token <operator_id>",
	Short: "Emite un token de operador para las rutas /api",
	Long: `Firma un JWT con JWT_SECRET para un operador (backoffice o scheduler).
billing:read permite consultas; billing:write permite emitir, actualizar y cancelar cobros.`,
	Example: `  cobranca token scheduler --scope billing:write
  cobranca token backoffice --scope "billing:read billing:write" --minutes 480`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("scope", jwt.ScopeBillingRead, "Scopes separados por espacio")
	tokenCmd.Flags().Int("minutes", 0, "Validez en minutos (por defecto: JWT_EXPIRATION_MINUTES)")
}

func runToken(cmd *cobra.Command, args []string) error {
	scope, _ := cmd.Flags().GetString("scope")
	minutes, _ := cmd.Flags().GetInt("minutes")

	for _, s := range strings.Fields(scope) {
		if s != jwt.ScopeBillingRead && s != jwt.ScopeBillingWrite {
			return fmt.Errorf("scope desconocido: %s", s)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	if minutes <= 0 {
		minutes = cfg.JWT.Expiration
	}

	tok, err := jwt.Generate(cfg.JWT.Secret, args[0], strings.Join(strings.Fields(scope), " "), cfg.JWT.Issuer, minutes)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

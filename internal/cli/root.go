// Package cli comandos de operación del motor de cobranza (cobra).
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Cobranca-api/internal/application/sideeffect"
	"github.com/jhoicas/Cobranca-api/internal/bootstrap"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	"github.com/jhoicas/Cobranca-api/pkg/config"
	"github.com/jhoicas/Cobranca-api/pkg/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "cobranca",
	Short: "Operación del motor de cobranza",
	Long: `cobranca ejecuta tareas operativas contra la misma base y el mismo gateway que la API:
reconciliación manual, sincronización de clientes, cálculo de vencimientos
consolidados y pago de comisiones a consultores.

Lee la configuración de las mismas variables de entorno que la API (.env incluido).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute corre el comando raíz; sale con código 1 si falla.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("falló la ejecución del comando")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withContainer arma las dependencias con efectos secundarios síncronos y las cierra al terminar.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	queue := &sideeffect.Inline{MaxAttempts: cfg.Worker.SideEffectMaxAttempts, Log: log.Component("sideeffect")}
	ctx := gateway.WithCredentialCache(cmd.Context())
	c, err := bootstrap.Build(ctx, cfg, log, queue)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := fn(ctx, c); err != nil {
		return err
	}
	if n := len(queue.Errors); n > 0 {
		log.Warn().Int("failed", n).Msg("efectos secundarios con errores")
	}
	return nil
}

package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/jhoicas/Cobranca-api/internal/cli"
	"github.com/jhoicas/Cobranca-api/pkg/logger"
)

func main() {
	// Cargar .env antes que viper para que las variables queden en el entorno del proceso
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: no se pudo cargar .env: %v", err)
	}

	logger.New(logger.Config{Env: "development", Level: "info"})

	cli.Execute()
}

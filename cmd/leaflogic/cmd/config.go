package cmd

import "github.com/leaflogic/leaflogic/internal/config"

var (
	cfg        config.Config
	configFile string

	// Chat options
	chatServerURL string
	chatPlantDB   string
)

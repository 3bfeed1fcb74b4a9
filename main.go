// @title MIK Voting Service API
// @version 1.0
// @description Real-time voting session server for the membership dashboard

// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name voting_session
package main

import (
	"github.com/joho/godotenv"
	"github.com/mistenes/mikdashboard-voting-sub000/api"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
	"github.com/spf13/viper"
)

func main() {
	_ = godotenv.Load()
	logging.BootstrapLogger()

	// Load env
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logging.Log.Warnf("No config file found, using environment and defaults: %v", err)
	}

	// Read config
	config := api.ReadConfig()

	// Start the service
	service := api.NewServer(config)
	service.Start()
}

// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment using viper and godotenv.
//
//	var cfg app.Config
//	if err := config.LoadConfig("hybridstt", &cfg); err != nil { ... }
package config

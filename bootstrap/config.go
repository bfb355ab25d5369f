package bootstrap

import "github.com/kbukum/hybridstt/config"

// Config is satisfied by any struct that embeds config.ServiceConfig.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

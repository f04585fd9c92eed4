package config

import "github.com/caarlos0/env/v11"

type ClientConfig struct {
	RelayWSURL   string `env:"RELAY_WS_URL" envDefault:"ws://127.0.0.1:8080/ws"`
	AuthEndpoint string `env:"RELAY_AUTH_URL" envDefault:"http://127.0.0.1:8080/auth"`
	IdentityDB   string `env:"IDENTITY_DB" envDefault:"cardroom.db"`
	DealDelayMS  int    `env:"DEAL_DELAY_MS" envDefault:"100"`
}

func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	err := env.Parse(&cfg)
	return cfg, err
}

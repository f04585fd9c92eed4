package config

import "github.com/caarlos0/env/v11"

type RelayConfig struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	AppKey    string `env:"RELAY_APP_KEY,required,notEmpty"`
	AppSecret string `env:"RELAY_APP_SECRET,required,notEmpty"`
}

func LoadRelay() (RelayConfig, error) {
	var cfg RelayConfig
	err := env.Parse(&cfg)
	return cfg, err
}

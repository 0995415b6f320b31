package main

type Config struct {
	Address  string `env:"TROLLBOX_ADDR,default=localhost:50051"`
	Alias    string `env:"ALIAS,default=Anonymous"`
	LogLevel string `env:"LOG_LEVEL,default=ERROR"`
	Colours  bool   `env:"COLOURS,default=true"`
}

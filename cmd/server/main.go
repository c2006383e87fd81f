package main

import (
	"github.com/vidmem/vidmem/internal/server"
	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/logger"
	"github.com/vidmem/vidmem/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	server.Init()
}

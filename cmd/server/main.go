package main

import (
	"github.com/conformitas/veridoc/internal/server"
	"github.com/conformitas/veridoc/internal/util"
	"github.com/conformitas/veridoc/pkg/logger"
	"github.com/conformitas/veridoc/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}

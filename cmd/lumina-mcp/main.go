package main

import "github.com/luminahq/lumina/internal/app"

func main() {
	// stdout carries the MCP protocol stream, so logs go to stderr.
	app.InitQuietLogger()
	app.MustReadEnv()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()

	app.MustServeMCP()
}

package main

import "github.com/luminahq/lumina/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()

	app.MustConnectRedis()
	defer app.DisconnectRedis()

	app.MustConnectPublisher()
	defer app.DisconnectPublisher()

	app.MustServeTaskAPI()
}

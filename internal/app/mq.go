package app

import (
	"github.com/luminahq/lumina/internal/config"
	"github.com/luminahq/lumina/internal/mq"
)

var globalPublisher *mq.Publisher

func MustConnectPublisher() {
	cfg := config.Global().MQ

	var err error
	globalPublisher, err = mq.NewPublisher(cfg.URL)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect publisher")
		panic(err)
	}
	globalLogger.Info().Msg("connected event publisher")
}

func DisconnectPublisher() {
	globalPublisher.Close()
	globalLogger.Info().Msg("disconnected event publisher")
}

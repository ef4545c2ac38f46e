package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rioastal/wastesense/internal/cloud"
	"github.com/rioastal/wastesense/internal/config"
	"github.com/rioastal/wastesense/internal/database"
	httpHandlers "github.com/rioastal/wastesense/internal/http"
	"github.com/rioastal/wastesense/internal/ingest"
	"github.com/rioastal/wastesense/internal/repository"
	"github.com/rioastal/wastesense/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	store, cleanup, err := openStore()
	if err != nil {
		log.Fatal().Err(err).Msg("store connect failed")
	}
	defer cleanup()

	var alerts service.Alerter
	if config.UseCloudServices() && config.SNSTopicArn() != "" {
		pub, err := cloud.NewAlertPublisher(context.Background(), config.AWSRegion(), config.SNSTopicArn())
		if err != nil {
			log.Fatal().Err(err).Msg("sns client failed")
		}
		alerts = pub
	}

	svcs := service.New(store, service.Options{
		Strict:         config.ValidationStrict(),
		TopicRain:      config.TopicRain(),
		TopicGas:       config.TopicGas(),
		Alerts:         alerts,
		AlertThreshold: config.GasAlertThreshold(),
	})

	sub := ingest.New(ingest.Config{
		Broker:    config.MQTTBroker(),
		Username:  config.MQTTUsername(),
		Password:  config.MQTTPassword(),
		ClientID:  config.MQTTClientID(),
		TopicRain: config.TopicRain(),
		TopicGas:  config.TopicGas(),
	}, svcs.Records)
	if err := sub.Start(); err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer sub.Stop()

	app := fiber.New()
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	httpHandlers.Register(app, svcs)

	go func() {
		addr := config.APIAddr()
		log.Info().Str("addr", addr).Msg("api listening")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("server exit")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

func openStore() (repository.Store, func(), error) {
	switch config.StoreDriver() {
	case "memory":
		return repository.NewMemory(), func() {}, nil
	case "dynamodb":
		store, err := cloud.NewDynamoStore(context.Background(), config.AWSRegion(), config.DynamoTable())
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		db, err := database.Connect()
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgres(db), func() { db.Close() }, nil
	}
}

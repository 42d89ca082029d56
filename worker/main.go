package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/devhub-tools/wikibot/internal/analytics"
	"github.com/devhub-tools/wikibot/internal/config"
	"github.com/devhub-tools/wikibot/internal/logger"
)

type eventIndexer interface {
	IndexEvent(ctx context.Context, ev analytics.Event) error
}

func main() {
	_ = godotenv.Load()

	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	store, err := analytics.NewStore(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init analytics store", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaConsumer,
	})
	defer reader.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := indexMessage(ctx, store, msg.Value); err != nil {
			// Query events are disposable telemetry: log and move on rather
			// than blocking the partition on one bad event.
			log.Warn("index event failed",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

func indexMessage(ctx context.Context, store eventIndexer, payload []byte) error {
	var ev analytics.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if ev.ID == "" {
		return errors.New("event without id")
	}
	return store.IndexEvent(ctx, ev)
}

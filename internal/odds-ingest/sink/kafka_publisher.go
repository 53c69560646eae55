package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/election-odds-ingest/internal/shared/kafka"
)

// KafkaPublisher publica um evento por candidato e um resumo por execução
type KafkaPublisher struct {
	candidates sharedkafka.MessageWriter
	runs       sharedkafka.MessageWriter
	log        *zap.Logger
}

func NewKafkaPublisher(brokers []string, candidateTopic, runsTopic string, log *zap.Logger) *KafkaPublisher {
	return NewKafkaPublisherWithWriters(
		sharedkafka.NewWriter(brokers, candidateTopic),
		sharedkafka.NewWriter(brokers, runsTopic),
		log,
	)
}

func NewKafkaPublisherWithWriters(candidates, runs sharedkafka.MessageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{candidates: candidates, runs: runs, log: log}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

// Publish usa o sobrenome como chave para manter a ordem por candidato na partição
func (p *KafkaPublisher) Publish(ctx context.Context, rep Report) error {
	updates := CandidateUpdates(rep)
	if len(updates) > 0 {
		msgs := make([]kafka.Message, 0, len(updates))
		for _, u := range updates {
			value, err := json.Marshal(u)
			if err != nil {
				return err
			}
			msgs = append(msgs, kafka.Message{Key: []byte(u.LastName), Value: value, Time: rep.FinishedAt})
		}
		if err := p.candidates.WriteMessages(ctx, msgs...); err != nil {
			p.log.Error("failed to publish candidate updates", zap.Error(err))
			return err
		}
	}

	value, err := json.Marshal(Completed(rep))
	if err != nil {
		return err
	}
	if err := sharedkafka.WriteJSON(ctx, p.runs, rep.Result.RunID, value); err != nil {
		p.log.Error("failed to publish ingestion summary", zap.Error(err))
		return err
	}

	p.log.Debug("published ingestion run",
		zap.String("run_id", rep.Result.RunID),
		zap.Int("candidates", len(updates)),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	errC := p.candidates.Close()
	errR := p.runs.Close()
	if errC != nil {
		return errC
	}
	return errR
}

// EnsureTopics cria os tópicos via controller do cluster (apenas local/dev, single-broker)
func EnsureTopics(ctx context.Context, broker string, log *zap.Logger, topics ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}

	cconn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial kafka controller: %w", err)
	}
	defer cconn.Close()

	cfgs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		cfgs = append(cfgs, kafka.TopicConfig{Topic: t, NumPartitions: 1, ReplicationFactor: 1})
	}

	if err := cconn.CreateTopics(cfgs...); err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("create topics: %w", err)
	}
	log.Info("kafka topics ready", zap.Strings("topics", topics))
	return nil
}

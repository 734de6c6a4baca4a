package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/rl1809/giftpay/internal/metrics"
)

type KafkaConfig struct {
	Brokers []string
	Version string
	Topic   string
}

// DLQProducer parks notifications that could not be delivered.
type DLQProducer struct {
	producer sarama.AsyncProducer
	log      *slog.Logger
	topic    string
	done     chan struct{}
}

func NewDLQProducer(cfg KafkaConfig, log *slog.Logger) (*DLQProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers list is empty")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka dlq topic is empty")
	}

	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, createSaramaConfig(version))
	if err != nil {
		return nil, err
	}

	p := &DLQProducer{
		producer: producer,
		log:      log.With(slog.String("component", "dlq")),
		topic:    cfg.Topic,
		done:     make(chan struct{}),
	}
	go p.drainErrors()
	return p, nil
}

func (p *DLQProducer) Send(ctx context.Context, message []byte, cause error) error {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(message),
		Headers: []sarama.RecordHeader{
			{Key: []byte("Source"), Value: []byte("admin-notifications")},
			{Key: []byte("Error"), Value: []byte(cause.Error())},
		},
	}

	select {
	case p.producer.Input() <- msg:
		metrics.Notifications.WithLabelValues("dead_lettered").Inc()
		return nil
	case <-ctx.Done():
		p.log.Warn("context cancelled before sending message to DLQ", slog.Any("error", ctx.Err()))
		return ctx.Err()
	}
}

func (p *DLQProducer) Close() error {
	err := p.producer.Close()
	<-p.done
	if err != nil {
		p.log.Error("failed to close Kafka producer", slog.Any("error", err))
	}
	return err
}

func (p *DLQProducer) drainErrors() {
	defer close(p.done)
	for perr := range p.producer.Errors() {
		p.log.Error("failed to deliver message to DLQ", slog.Any("error", perr.Err))
	}
}

func createSaramaConfig(ver sarama.KafkaVersion) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = ver
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	return config
}

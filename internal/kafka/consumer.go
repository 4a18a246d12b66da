package kafka

import (
	"context"
	"fmt"
	"log"
	"time"

	"calendar_reminders/internal/metrics"

	"github.com/IBM/sarama"
)

type MessageProcessor interface {
	ProcessDispatchMessage(ctx context.Context, message []byte) error
}

type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler sarama.ConsumerGroupHandler
	logger  *log.Logger
}

func NewConsumer(
	brokers []string,
	groupID string,
	topic string,
	processor MessageProcessor,
	logger *log.Logger,
) (*Consumer, error) {
	if logger == nil {
		logger = log.Default()
	}

	cfg := sarama.NewConfig()

	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	// коммит только руками после обработки
	cfg.Consumer.Offsets.AutoCommit.Enable = false

	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{
		sarama.NewBalanceStrategyRange(),
	}
	cfg.Consumer.Group.Session.Timeout = 30 * time.Second
	cfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	h := &dispatchGroupHandler{
		processor: processor,
		logger:    logger,
	}

	return &Consumer{
		group:   group,
		topic:   topic,
		handler: h,
		logger:  logger,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	// Ошибки группы в отдельный поток логов
	go func() {
		for err := range c.group.Errors() {
			c.logger.Printf("consumer group error: %v", err)
			metrics.IncKafkaError("consumer", "group")
		}
	}()

	for {
		err := c.group.Consume(ctx, []string{c.topic}, c.handler)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Printf("consume loop error: %v", err)
			time.Sleep(1 * time.Second)
			continue
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type dispatchGroupHandler struct {
	processor MessageProcessor
	logger    *log.Logger
}

func (h *dispatchGroupHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *dispatchGroupHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *dispatchGroupHandler) ConsumeClaim(
	session sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	for kafkaMsg := range claim.Messages() {
		lag := claim.HighWaterMarkOffset() - kafkaMsg.Offset - 1
		metrics.SetKafkaConsumerLag(kafkaMsg.Topic, kafkaMsg.Partition, lag)

		// Одна попытка на сообщение. Неудачная доставка терминальна для
		// этого устройства, redelivery не нужен — сообщение коммитим всегда.
		if err := h.processor.ProcessDispatchMessage(session.Context(), kafkaMsg.Value); err != nil {
			metrics.IncKafkaError("consumer", "process")
			h.logger.Printf(
				"process dispatch message failed topic=%s partition=%d offset=%d err=%v; dropping",
				kafkaMsg.Topic, kafkaMsg.Partition, kafkaMsg.Offset, err,
			)
		} else {
			metrics.IncKafkaProcessed()
		}

		session.MarkMessage(kafkaMsg, "")
		session.Commit()
	}
	return nil
}

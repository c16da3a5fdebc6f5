package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/supporthub/backend-go/internal/interfaces"
	"github.com/supporthub/backend-go/internal/logger"
	"go.uber.org/zap"
)

// Producer Kafka生产者
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// AgentActionEvent 坐席操作事件，供分析侧消费
type AgentActionEvent struct {
	ActionType     string      `json:"action_type"` // approve | reject | edit | escalate
	ConversationID *uint       `json:"conversation_id,omitempty"`
	MessageID      *uint       `json:"message_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

var globalProducer *Producer

var _ interfaces.EventPublisherInterface = (*Producer)(nil)

// InitProducer 初始化Kafka生产者
func InitProducer(brokers []string, topic string) error {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}

	globalProducer = &Producer{
		producer: producer,
		topic:    topic,
	}

	logger.Info("✅ Kafka producer initialized", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return nil
}

// GetProducer 获取全局生产者实例，未初始化时返回nil
func GetProducer() *Producer {
	return globalProducer
}

// Publish 发送消息到指定Topic
func (p *Producer) Publish(topic string, message interface{}) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}
	if topic == "" {
		topic = p.topic
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message failed: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		logger.Error("Failed to send kafka message", zap.String("topic", topic), zap.Error(err))
		return err
	}

	logger.Debug("Kafka message sent",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Natthaphatpiw/agn-chat/internal/dto"
	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IAuditConsumerService interface {
	Consume(ctx context.Context) error
}

type auditConsumerService struct {
	subscriber message.Subscriber
	topicName  string
	auditLog   logger.ILogger
	sysLog     logger.ILogger
}

// NewAuditConsumerService writes every event on topicName to auditLog.
func NewAuditConsumerService(
	subscriber message.Subscriber,
	topicName string,
	auditLog logger.ILogger,
	sysLog logger.ILogger,
) IAuditConsumerService {
	return &auditConsumerService{
		subscriber: subscriber,
		topicName:  topicName,
		auditLog:   auditLog,
		sysLog:     sysLog,
	}
}

// Consume subscribes and returns; messages are handled until ctx is done.
func (cs *auditConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *auditConsumerService) processMessage(msg *message.Message) {
	var payload dto.EventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.sysLog.Error("AUDIT", "Failed to unmarshal audit message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// malformed payloads are never retried
		msg.Ack()
		return
	}

	details := map[string]interface{}{
		"message_id":  msg.UUID,
		"occurred_at": payload.OccurredAt.Format(time.RFC3339Nano),
	}
	for k, v := range payload.Data {
		details[k] = v
	}
	cs.auditLog.Info("AUDIT", payload.Type, details)
	msg.Ack()
}

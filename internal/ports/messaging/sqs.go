package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSClient defines the slice of the AWS SQS client we send through.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// MessageSender defines the interface for sending raw messages to a messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}

// SQSSender implements MessageSender for AWS SQS.
type SQSSender struct {
	client SQSClient
}

func NewSQSSender(client SQSClient) *SQSSender {
	return &SQSSender{client: client}
}

func (s *SQSSender) SendMessage(ctx context.Context, destination string, body []byte) error {
	// Inject trace context into message attributes
	attributes := telemetry.InjectTraceContext(ctx)

	_, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(destination),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attributes,
	})
	return err
}

// EmailProducer defines the output port for enqueueing email jobs.
type EmailProducer interface {
	PublishEmail(ctx context.Context, event EmailEvent) error
}

// Producer enqueues asynchronous jobs on SQS.
type Producer struct {
	sender        MessageSender
	emailQueueURL string
}

func NewProducer(sender MessageSender, emailQueueURL string) *Producer {
	return &Producer{sender: sender, emailQueueURL: emailQueueURL}
}

// NewSQSProducer creates a Producer backed by an AWS SQS sender.
func NewSQSProducer(client SQSClient, emailQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, emailQueueURL)
}

// PublishEmail enqueues a clock-out summary email job.
func (p *Producer) PublishEmail(ctx context.Context, event EmailEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal email event: %w", err)
	}
	if err := p.sender.SendMessage(ctx, p.emailQueueURL, body); err != nil {
		return fmt.Errorf("failed to send message to email queue: %w", err)
	}
	return nil
}

// DeadLetter ships messages that exhausted processing to a side queue so a
// bad event cannot stall the stream.
type DeadLetter struct {
	sender   MessageSender
	queueURL string
}

func NewDeadLetter(sender MessageSender, queueURL string) *DeadLetter {
	return &DeadLetter{sender: sender, queueURL: queueURL}
}

type deadLetterEnvelope struct {
	Reason  string `json:"reason"`
	Payload string `json:"payload"`
}

// Send wraps the raw payload with the failure reason and enqueues it.
func (d *DeadLetter) Send(ctx context.Context, payload []byte, reason string) error {
	body, err := json.Marshal(deadLetterEnvelope{Reason: reason, Payload: string(payload)})
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}
	if err := d.sender.SendMessage(ctx, d.queueURL, body); err != nil {
		return fmt.Errorf("failed to send dead letter: %w", err)
	}
	return nil
}

package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// EmailProcessor handles clock-out summary jobs from the email queue.
type EmailProcessor struct {
	emailService core.EmailService
	employees    repository.EmployeeRepository
}

// NewProcessor sets up a new processor for handling email jobs. It needs an
// email service to send the summary and the employee repository to resolve
// the recipient address.
func NewProcessor(emailService core.EmailService, employees repository.EmployeeRepository) *EmailProcessor {
	return &EmailProcessor{
		emailService: emailService,
		employees:    employees,
	}
}

// Process is the main entry point for handling a message from the email queue.
// It tries to send an email and will tell the worker to retry if something goes wrong.
func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.EmailEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal email event")
		return false, 0, err // Do not retry on malformed message
	}

	employee, err := p.employees.FindByID(ctx, event.EmployeeID)
	if errors.Is(err, repository.ErrNotFound) {
		// Deactivated or deleted since clock-out; nobody to mail.
		log.Ctx(ctx).Info().Str("employee_id", event.EmployeeID).Msg("Employee not found, skipping summary email")
		return false, 0, nil
	}
	if err != nil {
		return true, 10, fmt.Errorf("failed to load employee for email processing: %w", err)
	}

	err = p.emailService.SendClockOutSummary(ctx, employee.Email, event.HoursWorked)
	if err != nil {
		delay := calculateBackoff(receiveCount(msg))
		return true, delay, err
	}

	return false, 0, nil
}

// receiveCount reads how often SQS has delivered this message already.
func receiveCount(msg types.Message) int {
	if raw, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return 1
}

// calculateBackoff determines how long to wait before retrying a failed job.
// It increases the delay exponentially with each retry to avoid overwhelming a struggling service.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 { // Cap at 1 hour
		return 3600
	}
	return backoff
}

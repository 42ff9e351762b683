package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

const eventSource = "ai.gov.kb"

// putEventsAPI is the slice of the EventBridge client the emitter needs.
type putEventsAPI interface {
	PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, opts ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgeEmitter publishes governance events to an EventBridge bus.
// Delivery runs in a goroutine with its own deadline so an unreachable
// bus can never stall the ask path.
type EventBridgeEmitter struct {
	client     putEventsAPI
	busName    string
	detailType string
	logger     *slog.Logger
}

func NewEventBridgeEmitter(cfg aws.Config, busName, detailType string, logger *slog.Logger) *EventBridgeEmitter {
	if detailType == "" {
		detailType = "AIGovAudit"
	}
	return &EventBridgeEmitter{
		client:     eventbridge.NewFromConfig(cfg),
		busName:    busName,
		detailType: detailType,
		logger:     logger,
	}
}

func (e *EventBridgeEmitter) Emit(event GovernanceEvent) {
	detail, err := json.Marshal(event)
	if err != nil {
		e.logger.Warn("governance event marshal failed", "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := e.client.PutEvents(ctx, &eventbridge.PutEventsInput{
			Entries: []types.PutEventsRequestEntry{{
				Source:       aws.String(eventSource),
				DetailType:   aws.String(e.detailType),
				Detail:       aws.String(string(detail)),
				EventBusName: aws.String(e.busName),
			}},
		})
		if err != nil {
			e.logger.Warn("governance event publish failed",
				"request_id", event.RequestID, "error", err)
		}
	}()
}

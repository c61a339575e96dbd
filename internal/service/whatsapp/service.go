package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/config"
	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository"
	client "github.com/mamadbah2/fournil/pkg/clients/whatsapp"
)

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// ProductionEngine is the slice of the workflow facade the operator
// commands read from.
type ProductionEngine interface {
	ListActiveOrders(ctx context.Context) ([]models.Order, error)
	GetProgressByLotCode(ctx context.Context, lotCode string) (models.Progress, error)
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	engine ProductionEngine
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, engine ProductionEngine, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		engine: engine,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

const helpReply = "Commands: /of lists active orders, /avancement <lot> shows an order's progress, /aide shows this help."

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	if len(payload.Entry) == 0 {
		return nil
	}

	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) == 0 {
				continue
			}

			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := extractMessageText(msg)
	if text == "" {
		return errors.New("empty message body")
	}

	cmd := models.ParseCommand(text)

	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Any("args", cmd.Args))

	reply := s.executeCommand(ctx, cmd)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         msg.From,
		Body:       reply,
		PreviewURL: false,
	})
	return err
}

func (s *MetaWhatsAppService) executeCommand(ctx context.Context, cmd models.Command) string {
	switch cmd.Type {
	case models.CommandOrders:
		return s.activeOrdersReply(ctx)
	case models.CommandProgress:
		if len(cmd.Args) == 0 {
			return "Usage: /avancement <lot code>, e.g. /avancement OP-20260830-001."
		}
		return s.progressReply(ctx, cmd.Args[0])
	case models.CommandHelp:
		return helpReply
	default:
		return "Unknown command.\n" + helpReply
	}
}

func (s *MetaWhatsAppService) activeOrdersReply(ctx context.Context) string {
	active, err := s.engine.ListActiveOrders(ctx)
	if err != nil {
		s.logger.Error("active orders lookup failed", zap.Error(err))
		return "Could not load the order queue, try again later."
	}

	if len(active) == 0 {
		return "No active production orders."
	}

	lines := make([]string, 0, len(active)+1)
	lines = append(lines, fmt.Sprintf("%d active orders:", len(active)))
	for _, order := range active {
		line := fmt.Sprintf("- %s %s x%g [%s]", order.LotCode, order.ProductRef, order.PlannedQuantity, order.Status)
		if order.Priority != models.PriorityNormal {
			line += " !" + string(order.Priority)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (s *MetaWhatsAppService) progressReply(ctx context.Context, lotCode string) string {
	prog, err := s.engine.GetProgressByLotCode(ctx, lotCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Sprintf("No order found for lot %s.", strings.ToUpper(lotCode))
		}
		s.logger.Error("progress lookup failed", zap.Error(err), zap.String("lot_code", lotCode))
		return "Could not compute progress, try again later."
	}

	stage := "not started"
	if prog.CurrentStage != "" {
		stage = string(prog.CurrentStage)
	}

	reply := fmt.Sprintf("Lot %s: %.1f%% complete (%g of %g planned).\nBatches: %g mixed, %d required, %g remaining.\nStage: %s",
		prog.LotCode, prog.PercentComplete, prog.ProducedQuantity, prog.PlannedQuantity,
		prog.BatchesProduced, prog.BatchesRequired, prog.BatchesRemaining, stage)
	if prog.NextStage != "" {
		reply += fmt.Sprintf(", next %s.", prog.NextStage)
	} else {
		reply += "."
	}
	if prog.MissingRecipeYield {
		reply += "\nWarning: no recipe linked to this product, batch figures unavailable."
	}
	return reply
}

// SendOutbound lets internal services push quick notifications via the API.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	return err
}

func extractMessageText(msg models.InboundMessage) string {
	if msg.Text != nil {
		return msg.Text.Body
	}

	if msg.Interactive != nil {
		if msg.Interactive.ButtonReply != nil {
			return msg.Interactive.ButtonReply.ID
		}
		if msg.Interactive.ListReply != nil {
			return msg.Interactive.ListReply.ID
		}
	}

	return ""
}

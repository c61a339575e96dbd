package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fournil/internal/config"
	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository"
	client "github.com/mamadbah2/fournil/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

type fakeEngine struct {
	active      []models.Order
	activeErr   error
	progress    models.Progress
	progressErr error
}

func (f *fakeEngine) ListActiveOrders(context.Context) ([]models.Order, error) {
	return f.active, f.activeErr
}

func (f *fakeEngine) GetProgressByLotCode(context.Context, string) (models.Progress, error) {
	return f.progress, f.progressErr
}

func newTestService(engine *fakeEngine) (*MetaWhatsAppService, *fakeClient) {
	cl := &fakeClient{}
	cfg := config.WhatsAppConfig{VerifyToken: "secret-token"}
	return NewMetaWhatsAppService(cfg, cl, engine, nil), cl
}

func textPayload(from, body string) models.WebhookPayload {
	return models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			Changes: []models.WebhookChange{{
				Field: "messages",
				Value: models.WebhookValue{
					Messages: []models.InboundMessage{{
						From: from,
						ID:   "wamid.1",
						Type: "text",
						Text: &models.TextContent{Body: body},
					}},
				},
			}},
		}},
	}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc, _ := newTestService(&fakeEngine{})

	challenge, err := svc.VerifyWebhookToken("subscribe", "secret-token", "challenge-42")
	require.NoError(t, err)
	assert.Equal(t, "challenge-42", challenge)

	_, err = svc.VerifyWebhookToken("subscribe", "wrong", "challenge-42")
	assert.Error(t, err)

	_, err = svc.VerifyWebhookToken("unsubscribe", "secret-token", "challenge-42")
	assert.Error(t, err)

	_, err = svc.VerifyWebhookToken("", "", "challenge-42")
	assert.Error(t, err)
}

func TestHandleWebhookOrdersCommand(t *testing.T) {
	engine := &fakeEngine{active: []models.Order{
		{LotCode: "OP-20260830-001", ProductRef: "baguette-classic", PlannedQuantity: 250, Status: models.StatusPlanned, Priority: models.PriorityNormal},
		{LotCode: "OP-20260830-002", ProductRef: "brioche", PlannedQuantity: 40, Status: models.Status(models.StageBaking), Priority: models.PriorityUrgent},
	}}
	svc, cl := newTestService(engine)

	err := svc.HandleWebhook(context.Background(), textPayload("22160000001", "/of"))
	require.NoError(t, err)

	require.Len(t, cl.sent, 1)
	assert.Equal(t, "22160000001", cl.sent[0].To)
	assert.Contains(t, cl.sent[0].Body, "2 active orders")
	assert.Contains(t, cl.sent[0].Body, "OP-20260830-001")
	assert.Contains(t, cl.sent[0].Body, "!urgent")
}

func TestHandleWebhookOrdersEmptyQueue(t *testing.T) {
	svc, cl := newTestService(&fakeEngine{})

	err := svc.HandleWebhook(context.Background(), textPayload("22160000001", "/of"))
	require.NoError(t, err)

	require.Len(t, cl.sent, 1)
	assert.Contains(t, cl.sent[0].Body, "No active production orders")
}

func TestHandleWebhookProgressCommand(t *testing.T) {
	engine := &fakeEngine{progress: models.Progress{
		LotCode:          "OP-20260830-001",
		PlannedQuantity:  250,
		ProducedQuantity: 100,
		PercentComplete:  40,
		BatchesProduced:  12,
		BatchesRequired:  30,
		BatchesRemaining: 18,
		CurrentStage:     models.StageFermentation,
		NextStage:        models.StageBaking,
	}}
	svc, cl := newTestService(engine)

	err := svc.HandleWebhook(context.Background(), textPayload("22160000001", "/avancement OP-20260830-001"))
	require.NoError(t, err)

	require.Len(t, cl.sent, 1)
	assert.Contains(t, cl.sent[0].Body, "40.0% complete")
	assert.Contains(t, cl.sent[0].Body, "12 mixed, 30 required, 18 remaining")
	assert.Contains(t, cl.sent[0].Body, "fermentation")
}

func TestHandleWebhookProgressUnknownLot(t *testing.T) {
	engine := &fakeEngine{progressErr: repository.ErrNotFound}
	svc, cl := newTestService(engine)

	err := svc.HandleWebhook(context.Background(), textPayload("22160000001", "/avancement OP-20260830-099"))
	require.NoError(t, err)

	require.Len(t, cl.sent, 1)
	assert.Contains(t, cl.sent[0].Body, "No order found for lot OP-20260830-099")
}

func TestHandleWebhookProgressMissingArgument(t *testing.T) {
	svc, cl := newTestService(&fakeEngine{})

	err := svc.HandleWebhook(context.Background(), textPayload("22160000001", "/avancement"))
	require.NoError(t, err)

	require.Len(t, cl.sent, 1)
	assert.Contains(t, cl.sent[0].Body, "Usage: /avancement")
}

func TestHandleWebhookMissingYieldWarning(t *testing.T) {
	engine := &fakeEngine{progress: models.Progress{
		LotCode:            "OP-20260830-003",
		PlannedQuantity:    50,
		MissingRecipeYield: true,
		NextStage:          models.StageDoughMixing,
	}}
	svc, cl := newTestService(engine)

	err := svc.HandleWebhook(context.Background(), textPayload("22160000001", "/avancement op-20260830-003"))
	require.NoError(t, err)

	require.Len(t, cl.sent, 1)
	assert.Contains(t, cl.sent[0].Body, "no recipe linked")
}

func TestHandleWebhookHelpAndUnknown(t *testing.T) {
	svc, cl := newTestService(&fakeEngine{})

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("22160000001", "/aide")))
	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("22160000001", "bonjour")))

	require.Len(t, cl.sent, 2)
	assert.Contains(t, cl.sent[0].Body, "/avancement <lot>")
	assert.Contains(t, cl.sent[1].Body, "Unknown command")
}

func TestHandleWebhookIgnoresEmptyEntries(t *testing.T) {
	svc, cl := newTestService(&fakeEngine{})

	err := svc.HandleWebhook(context.Background(), models.WebhookPayload{})
	require.NoError(t, err)
	assert.Empty(t, cl.sent)
}

func TestSendOutbound(t *testing.T) {
	svc, cl := newTestService(&fakeEngine{})

	err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{
		To:      "supervisor-phone",
		Message: "daily report",
	})
	require.NoError(t, err)

	require.Len(t, cl.sent, 1)
	assert.Equal(t, "supervisor-phone", cl.sent[0].To)
	assert.Equal(t, "daily report", cl.sent[0].Body)
}

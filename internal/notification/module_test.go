package notification

import (
	"context"
	"errors"
	"testing"

	"leadflow_backend/internal/events"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct {
	salesAlertAddress string
}

func (c testNotificationConfig) GetSalesAlertAddress() string { return c.salesAlertAddress }
func (c testNotificationConfig) GetAppBaseURL() string        { return "https://app.example.com" }

type testSender struct {
	saleWonCalls     int
	transferredCalls int
	lastTo           string
	lastName         string
	lastURL          string
	lastAmountCents  int64
	lastScore        float64
	err              error
}

func (s *testSender) SendSaleWonEmail(_ context.Context, toEmail, leadName, saleURL string, amountCents int64, durationDays int) error {
	s.saleWonCalls++
	s.lastTo = toEmail
	s.lastName = leadName
	s.lastURL = saleURL
	s.lastAmountCents = amountCents
	return s.err
}

func (s *testSender) SendLeadTransferredEmail(_ context.Context, toEmail, leadName, leadURL string, score float64) error {
	s.transferredCalls++
	s.lastTo = toEmail
	s.lastName = leadName
	s.lastURL = leadURL
	s.lastScore = score
	return s.err
}

func TestHandleSaleClosedWonSendsAlert(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{salesAlertAddress: "sales@example.com"}, logger.New("development"))
	saleID := uuid.New()

	err := m.handleSaleClosedWon(context.Background(), events.SaleClosedWon{
		BaseEvent:    events.NewBaseEvent(),
		SaleID:       saleID,
		LeadID:       uuid.New(),
		LeadName:     "Ada Lovelace",
		AmountCents:  250000,
		DurationDays: 12,
	})
	if err != nil {
		t.Fatalf("handleSaleClosedWon returned error: %v", err)
	}
	if sender.saleWonCalls != 1 {
		t.Fatalf("expected one won alert, got %d", sender.saleWonCalls)
	}
	if sender.lastTo != "sales@example.com" {
		t.Errorf("unexpected recipient %q", sender.lastTo)
	}
	if sender.lastName != "Ada Lovelace" {
		t.Errorf("unexpected lead name %q", sender.lastName)
	}
	if sender.lastAmountCents != 250000 {
		t.Errorf("unexpected amount %d", sender.lastAmountCents)
	}
	want := "https://app.example.com/sales/" + saleID.String()
	if sender.lastURL != want {
		t.Errorf("unexpected sale URL %q, want %q", sender.lastURL, want)
	}
}

func TestHandleSaleClosedWonSkipsWithoutAlertAddress(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.New("development"))

	err := m.handleSaleClosedWon(context.Background(), events.SaleClosedWon{
		BaseEvent: events.NewBaseEvent(),
		SaleID:    uuid.New(),
		LeadID:    uuid.New(),
		LeadName:  "Ada Lovelace",
	})
	if err != nil {
		t.Fatalf("handleSaleClosedWon returned error: %v", err)
	}
	if sender.saleWonCalls != 0 {
		t.Fatalf("expected no mail without an alert address, got %d calls", sender.saleWonCalls)
	}
}

func TestHandleLeadTransferredSendsAlert(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{salesAlertAddress: "sales@example.com"}, logger.New("development"))
	leadID := uuid.New()

	err := m.handleLeadTransferred(context.Background(), events.LeadTransferred{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		SaleID:    uuid.New(),
		FullName:  "Grace Hopper",
		AIScore:   0.82,
	})
	if err != nil {
		t.Fatalf("handleLeadTransferred returned error: %v", err)
	}
	if sender.transferredCalls != 1 {
		t.Fatalf("expected one transfer alert, got %d", sender.transferredCalls)
	}
	if sender.lastScore != 0.82 {
		t.Errorf("unexpected score %v", sender.lastScore)
	}
	want := "https://app.example.com/leads/" + leadID.String()
	if sender.lastURL != want {
		t.Errorf("unexpected lead URL %q, want %q", sender.lastURL, want)
	}
}

func TestHandleSaleClosedWonReturnsSenderError(t *testing.T) {
	sender := &testSender{err: errors.New("smtp down")}
	m := New(sender, testNotificationConfig{salesAlertAddress: "sales@example.com"}, logger.New("development"))

	err := m.handleSaleClosedWon(context.Background(), events.SaleClosedWon{
		BaseEvent: events.NewBaseEvent(),
		SaleID:    uuid.New(),
		LeadID:    uuid.New(),
		LeadName:  "Ada Lovelace",
	})
	if err == nil {
		t.Fatal("expected sender failure to surface to the bus")
	}
}

func TestHandleSaleClosedWonIgnoresForeignEvents(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{salesAlertAddress: "sales@example.com"}, logger.New("development"))

	err := m.handleSaleClosedWon(context.Background(), events.LeadCreated{BaseEvent: events.NewBaseEvent()})
	if err != nil {
		t.Fatalf("expected foreign event to be ignored, got error: %v", err)
	}
	if sender.saleWonCalls != 0 {
		t.Fatalf("expected no mail for a foreign event, got %d calls", sender.saleWonCalls)
	}
}

func TestRegisterHandlersRoutesEvents(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{salesAlertAddress: "sales@example.com"}, logger.New("development"))
	bus := events.NewInMemoryBus(logger.New("development"))
	m.RegisterHandlers(bus)

	leadID := uuid.New()
	err := bus.PublishSync(context.Background(), events.LeadTransferred{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		SaleID:    uuid.New(),
		FullName:  "Grace Hopper",
		AIScore:   0.9,
	})
	if err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}
	if sender.transferredCalls != 1 {
		t.Fatalf("expected the transfer subscription to fire, got %d calls", sender.transferredCalls)
	}

	sender.err = errors.New("smtp down")
	err = bus.PublishSync(context.Background(), events.SaleClosedWon{
		BaseEvent: events.NewBaseEvent(),
		SaleID:    uuid.New(),
		LeadID:    leadID,
		LeadName:  "Grace Hopper",
	})
	if err == nil {
		t.Fatal("expected a handler failure to come back through PublishSync")
	}
}

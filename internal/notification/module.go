// Package notification provides event handlers for sending notifications
// in response to domain events. This module subscribes to events and inverts
// the dependency: domain modules never need to know about email providers
// or templates.
package notification

import (
	"context"
	"fmt"

	"leadflow_backend/internal/email"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/logger"
)

// Config combines the settings the notification module reads.
type Config interface {
	GetSalesAlertAddress() string
	GetAppBaseURL() string
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender email.Sender
	cfg    Config
	log    *logger.Logger
}

// New creates a new notification module.
func New(sender email.Sender, cfg Config, log *logger.Logger) *Module {
	return &Module{
		sender: sender,
		cfg:    cfg,
		log:    log,
	}
}

// RegisterHandlers subscribes the module to the domain events it reacts to.
// Mail failures are returned to the bus, which logs them; publishing flows
// never block or fail on notification delivery.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SaleClosedWon{}.EventName(), events.HandlerFunc(m.handleSaleClosedWon))
	bus.Subscribe(events.LeadTransferred{}.EventName(), events.HandlerFunc(m.handleLeadTransferred))
}

func (m *Module) handleSaleClosedWon(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SaleClosedWon)
	if !ok {
		return nil
	}

	to := m.cfg.GetSalesAlertAddress()
	if to == "" {
		m.log.Debug("sales alert address not configured, skipping won notification", "saleId", e.SaleID)
		return nil
	}

	saleURL := m.cfg.GetAppBaseURL() + "/sales/" + e.SaleID.String()
	if err := m.sender.SendSaleWonEmail(ctx, to, e.LeadName, saleURL, e.AmountCents, e.DurationDays); err != nil {
		return fmt.Errorf("sale won alert for %s: %w", e.SaleID, err)
	}

	m.log.Info("sale won alert sent", "saleId", e.SaleID, "amountCents", e.AmountCents)
	return nil
}

func (m *Module) handleLeadTransferred(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadTransferred)
	if !ok {
		return nil
	}

	to := m.cfg.GetSalesAlertAddress()
	if to == "" {
		return nil
	}

	leadURL := m.cfg.GetAppBaseURL() + "/leads/" + e.LeadID.String()
	if err := m.sender.SendLeadTransferredEmail(ctx, to, e.FullName, leadURL, e.AIScore); err != nil {
		return fmt.Errorf("transfer alert for %s: %w", e.LeadID, err)
	}

	m.log.Info("lead transfer alert sent", "leadId", e.LeadID, "saleId", e.SaleID)
	return nil
}

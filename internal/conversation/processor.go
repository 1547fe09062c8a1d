// internal/conversation/processor.go
//
// Turn orchestration. The processor owns everything around a single
// engine decision: per-conversation serialization, duplicate delivery
// suppression, intent resolution, state load and store, side-channel
// notifications, the audit trail, and metrics. Failures after the
// engine has decided are logged and absorbed; the user always gets the
// reply the engine produced.
package conversation

import (
	"context"
	"time"

	"itbot/internal/common/logger"
	"itbot/internal/common/metrics"
	"itbot/internal/common/observability"
	"itbot/internal/dialogue"
	"itbot/internal/guard"
	"itbot/internal/models"
	"itbot/internal/state"

	"github.com/google/uuid"
)

// TurnInput is one delivered chat turn.
type TurnInput struct {
	UserID          string `json:"user_id"`
	ChannelID       string `json:"channel_id"`
	Text            string `json:"text"`
	SourceTimestamp string `json:"source_timestamp"`
	SelectedOption  string `json:"selected_option,omitempty"`
}

// Resolver interprets raw text into an intent with entities.
type Resolver interface {
	Resolve(text string) models.IntentData
}

// Engine decides the next action for an interpreted turn.
type Engine interface {
	NextAction(ctx context.Context, in models.IntentData, st *models.ConversationState) *models.ActionResult
}

// Notifier sends help desk side-channel messages. May be nil when
// notifications are disabled.
type Notifier interface {
	PasswordResetRequested(ctx context.Context, userID, employeeID string) error
	UrgentTicketCreated(ctx context.Context, ticketNumber, shortDescription string) error
}

// AuditLogger appends processed turns to the audit trail. May be nil.
type AuditLogger interface {
	Append(ctx context.Context, rec TurnRecord) error
}

// TurnRecord mirrors audit.TurnRecord without importing the audit
// package, so tests can fake the sink.
type TurnRecord struct {
	TurnID    string
	UserID    string
	ChannelID string
	Text      string
	Intent    models.Intent
	Action    models.Action
	Response  string
	Details   map[string]interface{}
	CreatedAt time.Time
}

type Processor struct {
	locks    *guard.ConversationLocks
	dedup    *guard.Deduplicator
	resolver Resolver
	store    state.Store
	engine   Engine
	notifier Notifier
	audit    AuditLogger
	obs      *observability.Observability
	logger   logger.Logger
}

func NewProcessor(
	locks *guard.ConversationLocks,
	dedup *guard.Deduplicator,
	resolver Resolver,
	store state.Store,
	engine Engine,
	notifier Notifier,
	auditLog AuditLogger,
	obs *observability.Observability,
	log logger.Logger,
) *Processor {
	return &Processor{
		locks:    locks,
		dedup:    dedup,
		resolver: resolver,
		store:    store,
		engine:   engine,
		notifier: notifier,
		audit:    auditLog,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "turn-processor"}),
	}
}

// Process runs one turn end to end and always returns a well-formed
// result.
func (p *Processor) Process(ctx context.Context, in TurnInput) *models.ActionResult {
	start := time.Now()
	turnID := uuid.NewString()
	conversationKey := in.UserID + ":" + in.ChannelID

	log := p.logger.WithFields(map[string]interface{}{
		"turnId": turnID,
		"user":   in.UserID,
	})

	unlock := p.locks.Lock(conversationKey)
	defer unlock()

	if !p.dedup.Claim(ctx, conversationKey, in.SourceTimestamp, in.Text) {
		log.Info("duplicate turn suppressed", nil)
		metrics.TurnsDeduplicated.Inc()
		return &models.ActionResult{Action: models.ActionDuplicateSuppressed}
	}

	intent := p.resolver.Resolve(in.Text)
	intent.UserID = in.UserID
	intent.SelectedOption = in.SelectedOption

	// Ticket ids must survive any resolver implementation; backfill
	// from the regex extractor when the resolver tagged none.
	if _, ok := intent.Entities[models.EntityTicketNumber]; !ok {
		if ids := dialogue.ExtractTicketIDs(in.Text); len(ids) > 0 {
			if intent.Entities == nil {
				intent.Entities = map[string][]string{}
			}
			intent.Entities[models.EntityTicketNumber] = ids
		}
	}

	prior, err := p.store.Get(ctx, in.UserID, in.ChannelID)
	if err != nil {
		// A dropped state turns the next turn into a fresh one, which
		// the user can recover from. Failing the turn they cannot.
		log.WithError(err).Error("state load failed, treating conversation as idle", nil)
		prior = nil
	}

	result := p.engine.NextAction(ctx, intent, prior)

	if result.NextState != nil {
		if err := p.store.Save(ctx, in.UserID, in.ChannelID, result.NextState); err != nil {
			log.WithError(err).Error("state save failed", nil)
		}
	} else if prior != nil {
		if err := p.store.Delete(ctx, in.UserID, in.ChannelID); err != nil {
			log.WithError(err).Error("state delete failed", nil)
		}
	}
	trackActiveFlows(prior, result.NextState)

	p.dispatchNotifications(ctx, in, prior, result, log)

	if p.audit != nil {
		if err := p.audit.Append(ctx, TurnRecord{
			TurnID:    turnID,
			UserID:    in.UserID,
			ChannelID: in.ChannelID,
			Text:      in.Text,
			Intent:    intent.Intent,
			Action:    result.Action,
			Response:  result.Response,
			Details:   result.Details,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			log.WithError(err).Error("audit append failed", nil)
		}
	}

	action := string(result.Action)
	metrics.TurnsProcessed.WithLabelValues(action).Inc()
	metrics.TurnDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	if p.obs != nil {
		p.obs.RecordTurnProcessed(ctx, action)
		p.obs.RecordTurnDuration(ctx, time.Since(start), action)
	}

	log.Info("turn processed", map[string]interface{}{
		"intent": intent.Intent,
		"action": result.Action,
	})
	return result
}

func (p *Processor) dispatchNotifications(ctx context.Context, in TurnInput, prior *models.ConversationState, result *models.ActionResult, log logger.Logger) {
	if p.notifier == nil {
		return
	}

	switch result.Action {
	case models.ActionPasswordResetReceived:
		employeeID, _ := result.Details["employee_id"].(string)
		if err := p.notifier.PasswordResetRequested(ctx, in.UserID, employeeID); err != nil {
			log.WithError(err).Error("password reset notification failed", nil)
		}
	case models.ActionTicketCreated:
		urgency, _ := result.Details["urgency"].(string)
		if urgency != "1" {
			return
		}
		ticketNumber, _ := result.Details["ticket_number"].(string)
		shortDescription := ""
		if prior != nil {
			shortDescription = prior.ShortDescription
		}
		if err := p.notifier.UrgentTicketCreated(ctx, ticketNumber, shortDescription); err != nil {
			log.WithError(err).Error("urgent ticket notification failed", nil)
		}
	}
}

func trackActiveFlows(prior, next *models.ConversationState) {
	switch {
	case prior == nil && next != nil:
		metrics.ActiveFlows.Inc()
	case prior != nil && next == nil:
		metrics.ActiveFlows.Dec()
	}
}

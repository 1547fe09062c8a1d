// internal/dialogue/engine.go
//
// The dialogue engine decides, for one interpreted turn and the caller's
// prior conversation state, the next action, the reply content, and the
// next state. State handlers take precedence over fresh intent
// classification, so a user mid-flow is never re-routed by a stray
// top-level intent. Every branch returns a well-formed ActionResult;
// downstream client failures collapse the flow into a localized apology
// with the state cleared.
package dialogue

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	commonerrors "itbot/internal/common/errors"
	"itbot/internal/common/logger"
	"itbot/internal/common/metrics"
	"itbot/internal/models"
)

const (
	minDescriptionLength  = 5
	minSoftwareNameLength = 2
)

type Engine struct {
	ticketing     TicketingClient
	knowledge     KnowledgeClient
	software      SoftwareClient
	minConfidence float64
	logger        logger.Logger
}

func NewEngine(ticketing TicketingClient, knowledge KnowledgeClient, software SoftwareClient, minConfidence float64, log logger.Logger) *Engine {
	return &Engine{
		ticketing:     ticketing,
		knowledge:     knowledge,
		software:      software,
		minConfidence: minConfidence,
		logger:        log.WithFields(map[string]interface{}{"component": "dialogue-engine"}),
	}
}

// NextAction is the engine's sole public entry point.
func (e *Engine) NextAction(ctx context.Context, in models.IntentData, state *models.ConversationState) *models.ActionResult {
	lang := SelectLanguage(in.Text)

	e.logger.Debug("processing turn", map[string]interface{}{
		"intent":     in.Intent,
		"confidence": in.Confidence,
		"waitingFor": state.Waiting(),
		"language":   lang,
	})

	switch state.Waiting() {
	case models.WaitingTicketNumber:
		return e.handleTicketNumberInput(ctx, in, state, lang)
	case models.WaitingTicketDetails:
		return e.handleTicketDetailsInput(ctx, in, state, lang)
	case models.WaitingConfirmation:
		return e.handleConfirmationInput(in, state, lang)
	case models.WaitingUrgencySelection:
		return e.handleUrgencySelection(in, state, lang)
	case models.WaitingSoftwareName:
		return e.handleSoftwareNameInput(in, state, lang)
	case models.WaitingSoftwareConfirmation:
		return e.handleSoftwareConfirmationInput(ctx, in, state, lang)
	case models.WaitingKBQuery:
		return e.handleKBQueryInput(ctx, in, lang)
	case models.WaitingEmployeeID:
		return e.handleEmployeeIDInput(in, lang)
	}

	return e.dispatchIntent(ctx, in, lang)
}

// ==========================
// State Handlers
// ==========================

// recordDownstreamFailure counts a failed workflow client call, labeled
// by client and normalized error code.
func recordDownstreamFailure(client string, err error) {
	metrics.DownstreamFailures.WithLabelValues(client, string(commonerrors.CodeOf(err))).Inc()
}

// resolveTicketID recovers a ticket id from the resolver's entities,
// falling back to the regex extractor over the raw text.
func resolveTicketID(in models.IntentData) (string, bool) {
	if id, ok := in.FirstEntity(models.EntityTicketNumber); ok {
		return id, true
	}
	if ids := ExtractTicketIDs(in.Text); len(ids) > 0 {
		return ids[0], true
	}
	return "", false
}

func (e *Engine) handleTicketNumberInput(ctx context.Context, in models.IntentData, state *models.ConversationState, lang Language) *models.ActionResult {
	ticketID, ok := resolveTicketID(in)
	if !ok {
		return &models.ActionResult{
			Action: models.ActionAskAgain,
			Response: pick(lang,
				"我没有识别到有效的工单号。请提供类似 INC12345 格式的工单号。",
				"I didn't recognize a valid ticket number. Please provide a ticket number in the format INC12345."),
			NextState: state, // keep waiting
		}
	}
	return e.lookupTicket(ctx, ticketID, lang)
}

func (e *Engine) lookupTicket(ctx context.Context, ticketID string, lang Language) *models.ActionResult {
	status, err := e.ticketing.GetStatus(ctx, ticketID)
	if err != nil {
		e.logger.WithError(err).Error("ticket status lookup failed", map[string]interface{}{"ticketId": ticketID})
		recordDownstreamFailure("servicenow", err)
		return &models.ActionResult{
			Action: models.ActionFailure,
			Response: pick(lang,
				"抱歉，查询工单状态时出现错误。请稍后再试。",
				"I'm sorry, I encountered an error while checking the ticket status. Please try again later."),
			NextState: nil,
		}
	}

	if !status.Found {
		return &models.ActionResult{
			Action: models.ActionReportError,
			Response: pick(lang,
				fmt.Sprintf("没有找到工单 %s。请检查工单号后重试。", ticketID),
				fmt.Sprintf("I couldn't find ticket %s. Please check the ticket number and try again.", ticketID)),
			NextState: nil,
		}
	}

	return &models.ActionResult{
		Action:    models.ActionReportStatus,
		Response:  renderTicketStatus(ticketID, status, lang),
		NextState: nil,
		Details: map[string]interface{}{
			"ticket_number": ticketID,
			"state":         status.State,
			"priority":      status.Priority,
		},
	}
}

func renderTicketStatus(ticketID string, status *TicketStatus, lang Language) string {
	if lang == LangChinese {
		out := fmt.Sprintf("工单 %s：\n状态：%s\n优先级：%s\n描述：%s",
			ticketID, status.State, status.Priority, status.ShortDescription)
		if status.UpdatedAt != "" {
			out += fmt.Sprintf("\n最后更新：%s", status.UpdatedAt)
		}
		return out
	}
	out := fmt.Sprintf("Ticket %s:\nStatus: %s\nPriority: %s\nDescription: %s",
		ticketID, status.State, status.Priority, status.ShortDescription)
	if status.UpdatedAt != "" {
		out += fmt.Sprintf("\nLast Updated: %s", status.UpdatedAt)
	}
	return out
}

func (e *Engine) handleTicketDetailsInput(ctx context.Context, in models.IntentData, state *models.ConversationState, lang Language) *models.ActionResult {
	description := strings.TrimSpace(in.Text)
	// Rune count, not bytes: a short Chinese description is few
	// characters but many bytes.
	if utf8.RuneCountInString(description) < minDescriptionLength {
		return &models.ActionResult{
			Action: models.ActionAskAgain,
			Response: pick(lang,
				"请提供更多关于您遇到的问题的详细信息。",
				"Please provide more details about the issue you're experiencing."),
			NextState: state,
		}
	}

	shortDescription := state.ShortDescription
	if shortDescription == "" {
		shortDescription = "IT Support Request"
	}
	urgency := state.Urgency
	if urgency == "" {
		urgency = models.DefaultUrgency
	}

	ticketID, err := e.ticketing.CreateTicket(ctx, shortDescription, description, urgency)
	if err != nil {
		e.logger.WithError(err).Error("ticket creation failed", nil)
		recordDownstreamFailure("servicenow", err)
		return &models.ActionResult{
			Action: models.ActionReportError,
			Response: pick(lang,
				fmt.Sprintf("抱歉，无法创建您的工单。错误：%s", err.Error()),
				fmt.Sprintf("I'm sorry, I couldn't create your ticket. Error: %s", err.Error())),
			NextState: nil,
		}
	}

	return &models.ActionResult{
		Action: models.ActionTicketCreated,
		Response: pick(lang,
			fmt.Sprintf("成功！我已为您创建工单 %s。IT团队会尽快处理。", ticketID),
			fmt.Sprintf("Success! I've created ticket %s for you. The IT team will review it shortly.", ticketID)),
		NextState: nil,
		Details: map[string]interface{}{
			"ticket_number": ticketID,
			"urgency":       urgency,
		},
	}
}

func (e *Engine) handleConfirmationInput(in models.IntentData, state *models.ConversationState, lang Language) *models.ActionResult {
	if !IsAffirmative(in.Text) {
		return &models.ActionResult{
			Action: models.ActionCancelled,
			Response: pick(lang,
				"已取消该请求。还有什么可以帮您？",
				"I've cancelled the request. Is there anything else I can help with?"),
			NextState: nil,
		}
	}

	switch state.ActionType {
	case models.ActionTypePasswordReset:
		return &models.ActionResult{
			Action: models.ActionPasswordResetConfirmed,
			Response: pick(lang,
				"好的，我将为您重置密码。请提供您的员工ID或用户名。",
				"I'll start the password reset process. Please provide your employee ID or username."),
			NextState: &models.ConversationState{
				WaitingFor: models.WaitingEmployeeID,
				ActionType: models.ActionTypePasswordReset,
			},
		}
	case models.ActionTypeCreateTicket:
		shortDescription := state.ShortDescription
		if shortDescription == "" {
			shortDescription = "IT Support Request"
		}
		return &models.ActionResult{
			Action: models.ActionSelectUrgency,
			Response: pick(lang,
				"请选择此工单的紧急程度：",
				"Please select the urgency for this ticket:"),
			ResponseType: models.ResponseBlocks,
			BlocksConfig: &models.BlocksConfig{
				Type: "select_urgency",
				Text: pick(lang,
					"请选择您工单的紧急程度：",
					"Please select the urgency level for your ticket:"),
			},
			NextState: &models.ConversationState{
				WaitingFor:       models.WaitingUrgencySelection,
				ActionType:       models.ActionTypeCreateTicket,
				ShortDescription: shortDescription,
				Location:         state.Location,
			},
		}
	default:
		return &models.ActionResult{
			Action: models.ActionConfirmed,
			Response: pick(lang,
				"已确认。还有什么可以帮您？",
				"Confirmed. How else can I help you?"),
			NextState: nil,
		}
	}
}

func (e *Engine) handleUrgencySelection(in models.IntentData, state *models.ConversationState, lang Language) *models.ActionResult {
	urgency := in.SelectedOption
	if urgency == "" {
		// Transports without a picker deliver the choice as plain text.
		if t := strings.TrimSpace(in.Text); t == "1" || t == "2" || t == "3" {
			urgency = t
		}
	}
	if urgency == "" {
		// Should not occur with a picker UI.
		urgency = models.DefaultUrgency
		e.logger.Warn("no urgency provided, defaulting to Low (3)", nil)
	}

	shortDescription := state.ShortDescription
	if shortDescription == "" {
		shortDescription = "IT Support Request"
	}

	return &models.ActionResult{
		Action: models.ActionUrgencySelected,
		Response: pick(lang,
			"谢谢。现在请详细描述您遇到的问题。",
			"Thank you. Now please describe the issue you're experiencing in detail."),
		NextState: &models.ConversationState{
			WaitingFor:       models.WaitingTicketDetails,
			ActionType:       models.ActionTypeCreateTicket,
			ShortDescription: shortDescription,
			Urgency:          urgency,
			Location:         state.Location,
		},
	}
}

func (e *Engine) handleSoftwareNameInput(in models.IntentData, state *models.ConversationState, lang Language) *models.ActionResult {
	softwareName := strings.TrimSpace(in.Text)

	// Prefer the resolver's span when it tagged one.
	if name, ok := in.FirstEntity(models.EntitySoftwareName); ok {
		softwareName = name
	}

	if utf8.RuneCountInString(softwareName) < minSoftwareNameLength {
		return &models.ActionResult{
			Action: models.ActionAskAgain,
			Response: pick(lang,
				"我不太清楚您需要哪个软件。请说明您想申请的软件名称。",
				"I couldn't understand which software you need. Please specify the name of the software you'd like to request."),
			NextState: state,
		}
	}

	return &models.ActionResult{
		Action: models.ActionConfirmSoftwareRequest,
		Response: pick(lang,
			fmt.Sprintf("好的。您想申请 %s，对吗？（是/否）", softwareName),
			fmt.Sprintf("Got it. You want to request %s. Is that correct? (Yes/No)", softwareName)),
		NextState: &models.ConversationState{
			WaitingFor:   models.WaitingSoftwareConfirmation,
			ActionType:   models.ActionTypeRequestSoftware,
			SoftwareName: softwareName,
		},
	}
}

func (e *Engine) handleSoftwareConfirmationInput(ctx context.Context, in models.IntentData, state *models.ConversationState, lang Language) *models.ActionResult {
	softwareName := state.SoftwareName
	if softwareName == "" {
		softwareName = "the requested software"
	}

	if !IsAffirmative(in.Text) {
		return &models.ActionResult{
			Action: models.ActionAskSoftwareName,
			Response: pick(lang,
				"好的。请提供您想申请的软件的正确名称。",
				"I see. Please provide the correct name of the software you'd like to request."),
			NextState: &models.ConversationState{
				WaitingFor: models.WaitingSoftwareName,
				ActionType: models.ActionTypeRequestSoftware,
			},
		}
	}

	result, err := e.software.Submit(ctx, in.UserID, softwareName)
	if err != nil {
		e.logger.WithError(err).Error("software request failed", map[string]interface{}{"software": softwareName})
		recordDownstreamFailure("software", err)
		return &models.ActionResult{
			Action: models.ActionFailure,
			Response: pick(lang,
				"抱歉，处理您的软件申请时出现错误。请稍后再试。",
				"I'm sorry, I encountered an error while processing your software request. Please try again later."),
			NextState: nil,
		}
	}

	response := pick(lang,
		fmt.Sprintf("好的！我已为您提交 %s 的申请。IT团队会尽快审核并与您联系。", softwareName),
		fmt.Sprintf("Great! I've submitted a request for %s. The IT team will review your request and contact you shortly.", softwareName))
	details := map[string]interface{}{"software_name": softwareName}
	if result.TicketID != "" {
		response += pick(lang,
			fmt.Sprintf("申请编号为 %s。", result.TicketID),
			fmt.Sprintf(" Your request has been tracked as %s.", result.TicketID))
		details["ticket_number"] = result.TicketID
	}
	if result.Simulated {
		details["simulated"] = true
	}

	return &models.ActionResult{
		Action:    models.ActionSoftwareRequested,
		Response:  response,
		NextState: nil,
		Details:   details,
	}
}

func (e *Engine) handleKBQueryInput(ctx context.Context, in models.IntentData, lang Language) *models.ActionResult {
	answer, err := e.knowledge.Answer(ctx, in.Text)
	if err != nil {
		e.logger.WithError(err).Error("knowledge answer failed", nil)
		recordDownstreamFailure("knowledge", err)
		return &models.ActionResult{
			Action: models.ActionFailure,
			Response: pick(lang,
				"抱歉，搜索知识库时出现错误。请稍后再试。",
				"Sorry, there was an error searching the knowledge base. Please try again later."),
			NextState: nil,
		}
	}

	return &models.ActionResult{
		Action:    models.ActionProvideKBAnswer,
		Response:  answer,
		NextState: nil,
	}
}

func (e *Engine) handleEmployeeIDInput(in models.IntentData, lang Language) *models.ActionResult {
	return &models.ActionResult{
		Action: models.ActionPasswordResetReceived,
		Response: pick(lang,
			"已收到您的员工ID。我们将在24小时内处理您的密码重置请求，并通过邮件通知您。",
			"We've received your employee ID. Your password reset request will be processed within 24 hours and you'll be notified by email."),
		NextState: nil,
		Details: map[string]interface{}{
			"employee_id": strings.TrimSpace(in.Text),
		},
	}
}

// internal/dialogue/intents.go
package dialogue

import (
	"context"
	"fmt"
	"strings"

	"itbot/internal/models"
)

// dispatchIntent routes an idle-state turn by its classified intent.
func (e *Engine) dispatchIntent(ctx context.Context, in models.IntentData, lang Language) *models.ActionResult {
	intent := in.Intent
	if intent == "" {
		intent = models.IntentUnknown
	}
	// Low resolver confidence routes to the generic clarification.
	if in.Confidence > 0 && in.Confidence < e.minConfidence {
		intent = models.IntentUnknown
	}

	switch intent {
	case models.IntentCheckTicketStatus:
		return e.handleCheckTicketStatus(ctx, in, lang)
	case models.IntentResetPassword:
		return e.handleResetPassword(lang)
	case models.IntentCreateTicket:
		return e.handleCreateTicket(in, lang)
	case models.IntentRequestSoftware:
		return e.handleRequestSoftware(in, lang)
	case models.IntentFindKBArticle:
		return e.handleFindKBArticle(lang)
	case models.IntentGreeting:
		return &models.ActionResult{
			Action: models.ActionGreeting,
			Response: pick(lang,
				"您好！我是IT支持助手。今天有什么可以帮您的吗？",
				"Hello! I'm your IT support assistant. How can I help you today?"),
			NextState: nil,
		}
	case models.IntentGeneralQuestion:
		return &models.ActionResult{
			Action: models.ActionGeneral,
			Response: pick(lang,
				"我可以帮助解决IT相关问题。我可以查询工单状态、帮助重置密码、查找知识库文章、创建新的支持工单或请求软件。您需要什么帮助？",
				"I can help with IT-related questions. I can check ticket status, help reset passwords, find knowledge base articles, create new support tickets, or request software. What would you like assistance with?"),
			NextState: nil,
		}
	}

	return &models.ActionResult{
		Action: models.ActionClarify,
		Response: pick(lang,
			"抱歉，我不太理解您的意思。我可以帮助查询工单状态、重置密码、查找知识库文章、创建支持工单或请求软件。您能重新描述您的请求吗？",
			"I'm not sure I understand. I can help with checking ticket status, resetting passwords, finding knowledge base articles, creating support tickets, or requesting software. Could you please rephrase your request?"),
		NextState: nil,
	}
}

func (e *Engine) handleCheckTicketStatus(ctx context.Context, in models.IntentData, lang Language) *models.ActionResult {
	if ticketID, ok := in.FirstEntity(models.EntityTicketNumber); ok {
		return e.lookupTicket(ctx, ticketID, lang)
	}

	return &models.ActionResult{
		Action: models.ActionAskTicketNumber,
		Response: pick(lang,
			"我可以帮您查询工单状态。请提供工单号（例如 INC12345）。",
			"I can check the status of your ticket. Could you please provide the ticket number (e.g., INC12345)?"),
		NextState: &models.ConversationState{
			WaitingFor: models.WaitingTicketNumber,
			ActionType: models.ActionTypeCheckTicket,
		},
	}
}

func (e *Engine) handleResetPassword(lang Language) *models.ActionResult {
	return &models.ActionResult{
		Action: models.ActionConfirmReset,
		Response: pick(lang,
			"我可以帮您重置密码。系统将生成临时密码。是否继续？",
			"I can help you reset your password. This will generate a temporary password. Would you like to proceed?"),
		ResponseType: models.ResponseBlocks,
		BlocksConfig: &models.BlocksConfig{
			Type: "confirm_password_reset",
			Text: pick(lang,
				"我可以帮您重置密码。系统将生成首次登录后需要修改的临时密码。",
				"I can help you reset your password. This will generate a temporary password that you'll need to change upon first login."),
		},
		NextState: &models.ConversationState{
			WaitingFor: models.WaitingConfirmation,
			ActionType: models.ActionTypePasswordReset,
		},
	}
}

// issueKeywords drives short-description derivation for new tickets.
// Case-insensitive substring match against the raw turn, first match wins,
// checked in this order.
var issueKeywords = []struct {
	keywords  []string
	issueType string
}{
	{[]string{"network"}, "Network issue"},
	{[]string{"password"}, "Password issue"},
	{[]string{"software", "program", "application"}, "Software issue"},
	{[]string{"hardware", "computer", "laptop"}, "Hardware issue"},
}

func deriveShortDescription(text, location string) string {
	lower := strings.ToLower(text)
	issueType := "IT support request"
	for _, rule := range issueKeywords {
		matched := false
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if matched {
			issueType = rule.issueType
			break
		}
	}

	if location != "" {
		return fmt.Sprintf("%s at %s", issueType, location)
	}
	return issueType
}

func (e *Engine) handleCreateTicket(in models.IntentData, lang Language) *models.ActionResult {
	location, _ := in.FirstEntity(models.EntityLocation)
	shortDescription := deriveShortDescription(in.Text, location)

	return &models.ActionResult{
		Action: models.ActionConfirmCreateTicket,
		Response: pick(lang,
			fmt.Sprintf("我将为您创建工单：'%s'。是否继续？", shortDescription),
			fmt.Sprintf("I'll help you create a ticket for: '%s'. Would you like to proceed?", shortDescription)),
		NextState: &models.ConversationState{
			WaitingFor:       models.WaitingConfirmation,
			ActionType:       models.ActionTypeCreateTicket,
			ShortDescription: shortDescription,
			Urgency:          models.DefaultUrgency,
			Location:         location,
		},
	}
}

func (e *Engine) handleRequestSoftware(in models.IntentData, lang Language) *models.ActionResult {
	if softwareName, ok := in.FirstEntity(models.EntitySoftwareName); ok {
		return &models.ActionResult{
			Action: models.ActionConfirmSoftwareRequest,
			Response: pick(lang,
				fmt.Sprintf("您想申请 %s，对吗？（是/否）", softwareName),
				fmt.Sprintf("I see you want to request %s. Is that correct? (Yes/No)", softwareName)),
			NextState: &models.ConversationState{
				WaitingFor:   models.WaitingSoftwareConfirmation,
				ActionType:   models.ActionTypeRequestSoftware,
				SoftwareName: softwareName,
			},
		}
	}

	return &models.ActionResult{
		Action: models.ActionAskSoftwareName,
		Response: pick(lang,
			"我可以帮您申请软件。您想申请哪个软件？",
			"I can help you request software. Which software would you like to request?"),
		NextState: &models.ConversationState{
			WaitingFor: models.WaitingSoftwareName,
			ActionType: models.ActionTypeRequestSoftware,
		},
	}
}

func (e *Engine) handleFindKBArticle(lang Language) *models.ActionResult {
	return &models.ActionResult{
		Action: models.ActionAskKBQuery,
		Response: pick(lang,
			"请问您想查询什么IT相关问题？",
			"What IT-related question would you like me to answer?"),
		NextState: &models.ConversationState{
			WaitingFor: models.WaitingKBQuery,
			ActionType: models.ActionTypeFindKB,
		},
	}
}

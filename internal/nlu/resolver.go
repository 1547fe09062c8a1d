// internal/nlu/resolver.go
//
// Rule-based bilingual (English / Chinese) intent resolver. It interprets
// a raw turn into an intent plus extracted entities without calling any
// external model, so the bot keeps answering when no NLU service is
// reachable. Rules are checked in priority order and the first match wins.
package nlu

import (
	"regexp"
	"strings"

	"itbot/internal/common/logger"
	"itbot/internal/dialogue"
	"itbot/internal/models"
)

const (
	ruleConfidence     = 0.9
	greetingConfidence = 0.95
	generalConfidence  = 0.5
)

var (
	softwarePattern = regexp.MustCompile(`(?i)\b(?:install|installing|request)\s+([A-Za-z][\w.+-]*(?:\s+[A-Z][\w.+-]*)*)`)
	locationPattern = regexp.MustCompile(`(?i)\b(?:at|in)\s+((?:building|room|floor|office)\s+\w+)`)
)

type Resolver struct {
	logger logger.Logger
}

func NewResolver(log logger.Logger) *Resolver {
	return &Resolver{logger: log.WithFields(map[string]interface{}{"component": "nlu-resolver"})}
}

// Resolve classifies one turn. It never fails; unmatched input comes back
// as a general question or unknown with a low confidence.
func (r *Resolver) Resolve(text string) models.IntentData {
	out := models.IntentData{
		Text:     text,
		Entities: map[string][]string{},
	}

	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if ids := dialogue.ExtractTicketIDs(trimmed); len(ids) > 0 {
		out.Entities[models.EntityTicketNumber] = ids
	}
	if m := softwarePattern.FindStringSubmatch(trimmed); m != nil {
		out.Entities[models.EntitySoftwareName] = []string{strings.TrimSpace(m[1])}
	}
	if m := locationPattern.FindStringSubmatch(trimmed); m != nil {
		out.Entities[models.EntityLocation] = []string{titleCase(m[1])}
	}

	switch {
	case isGreeting(lower, trimmed):
		out.Intent = models.IntentGreeting
		out.Confidence = greetingConfidence
	case isCheckTicketStatus(lower, trimmed, out.Entities):
		out.Intent = models.IntentCheckTicketStatus
		out.Confidence = ruleConfidence
	case isResetPassword(lower, trimmed):
		out.Intent = models.IntentResetPassword
		out.Confidence = ruleConfidence
	case isRequestSoftware(lower, trimmed):
		out.Intent = models.IntentRequestSoftware
		out.Confidence = ruleConfidence
	case isFindKBArticle(lower, trimmed):
		out.Intent = models.IntentFindKBArticle
		out.Confidence = ruleConfidence
	case isCreateTicket(lower, trimmed):
		out.Intent = models.IntentCreateTicket
		out.Confidence = ruleConfidence
	case isGeneralQuestion(lower, trimmed):
		out.Intent = models.IntentGeneralQuestion
		out.Confidence = generalConfidence
	default:
		out.Intent = models.IntentUnknown
		out.Confidence = 0
	}

	r.logger.Debug("turn resolved", map[string]interface{}{
		"intent":     out.Intent,
		"confidence": out.Confidence,
		"entities":   len(out.Entities),
	})
	return out
}

func isGreeting(lower, raw string) bool {
	greetings := []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening"}
	for _, g := range greetings {
		if lower == g || strings.HasPrefix(lower, g+" ") || strings.HasPrefix(lower, g+",") || strings.HasPrefix(lower, g+"!") {
			return true
		}
	}
	return strings.Contains(raw, "你好") || strings.Contains(raw, "您好")
}

func isCheckTicketStatus(lower, raw string, entities map[string][]string) bool {
	if _, ok := entities[models.EntityTicketNumber]; ok {
		return true
	}
	if strings.Contains(lower, "status") && (strings.Contains(lower, "ticket") || strings.Contains(lower, "request") || strings.Contains(lower, "incident")) {
		return true
	}
	if strings.Contains(raw, "工单") && (strings.Contains(raw, "查") || strings.Contains(raw, "状态") || strings.Contains(raw, "进度")) {
		return true
	}
	return false
}

func isResetPassword(lower, raw string) bool {
	if strings.Contains(lower, "password") && (strings.Contains(lower, "reset") || strings.Contains(lower, "forgot") || strings.Contains(lower, "change")) {
		return true
	}
	return strings.Contains(raw, "密码") && (strings.Contains(raw, "重置") || strings.Contains(raw, "忘记") || strings.Contains(raw, "修改"))
}

func isRequestSoftware(lower, raw string) bool {
	if strings.Contains(lower, "install") {
		return true
	}
	if strings.Contains(lower, "software") && (strings.Contains(lower, "request") || strings.Contains(lower, "need") || strings.Contains(lower, "want")) {
		return true
	}
	return strings.Contains(raw, "软件") && (strings.Contains(raw, "申请") || strings.Contains(raw, "安装") || strings.Contains(raw, "需要"))
}

func isFindKBArticle(lower, raw string) bool {
	for _, kw := range []string{"knowledge base", "kb article", "how do i", "how to", "documentation", "instructions"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range []string{"知识库", "文章", "怎么", "如何"} {
		if strings.Contains(raw, kw) {
			return true
		}
	}
	return false
}

func isCreateTicket(lower, raw string) bool {
	for _, kw := range []string{"broken", "not working", "doesn't work", "create a ticket", "create ticket", "open a ticket", "report an issue", "report a problem", "issue", "problem", "down", "crash"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range []string{"坏了", "不能用", "创建工单", "报告问题", "故障", "报修"} {
		if strings.Contains(raw, kw) {
			return true
		}
	}
	return false
}

func isGeneralQuestion(lower, raw string) bool {
	if strings.HasSuffix(strings.TrimSpace(lower), "?") || strings.HasSuffix(raw, "？") {
		return true
	}
	for _, kw := range []string{"can you", "what can", "help me", "帮助", "帮我"} {
		if strings.Contains(lower, kw) || strings.Contains(raw, kw) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if f == "" {
			continue
		}
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}

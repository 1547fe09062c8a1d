// internal/models/dialogue.go
package models

// Intent is the classified purpose of a user turn.
type Intent string

const (
	IntentCheckTicketStatus Intent = "check_ticket_status"
	IntentResetPassword     Intent = "reset_password"
	IntentFindKBArticle     Intent = "find_kb_article"
	IntentCreateTicket      Intent = "create_ticket"
	IntentRequestSoftware   Intent = "request_software"
	IntentGreeting          Intent = "greeting"
	IntentGeneralQuestion   Intent = "general_question"
	IntentUnknown           Intent = "unknown"
)

// Entity type labels produced by the resolver or the fallback extractor.
const (
	EntityTicketNumber = "TICKET_NUMBER"
	EntityLocation     = "LOC"
	EntitySoftwareName = "SOFTWARE_NAME"
)

// IntentData is the interpreted form of one inbound turn.
type IntentData struct {
	Intent         Intent              `json:"intent"`
	Text           string              `json:"text"`
	Entities       map[string][]string `json:"entities,omitempty"`
	Confidence     float64             `json:"confidence,omitempty"`
	SelectedOption string              `json:"selected_option,omitempty"`
	UserID         string              `json:"user_id,omitempty"`
}

// FirstEntity returns the first extracted value for an entity type, if any.
func (d *IntentData) FirstEntity(entityType string) (string, bool) {
	values, ok := d.Entities[entityType]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// WaitingFor names the slot the dialogue flow still needs.
type WaitingFor string

const (
	WaitingNone                 WaitingFor = ""
	WaitingTicketNumber         WaitingFor = "ticket_number"
	WaitingTicketDetails        WaitingFor = "ticket_details"
	WaitingConfirmation         WaitingFor = "confirmation"
	WaitingUrgencySelection     WaitingFor = "urgency_selection"
	WaitingSoftwareName         WaitingFor = "software_name"
	WaitingSoftwareConfirmation WaitingFor = "software_confirmation"
	WaitingKBQuery              WaitingFor = "kb_query"
	WaitingEmployeeID           WaitingFor = "employee_id"
)

// ActionType identifies the flow that created a conversation state.
type ActionType string

const (
	ActionTypeCreateTicket    ActionType = "create_ticket"
	ActionTypePasswordReset   ActionType = "password_reset"
	ActionTypeRequestSoftware ActionType = "request_software"
	ActionTypeCheckTicket     ActionType = "check_ticket"
	ActionTypeFindKB          ActionType = "find_kb"
)

// DefaultUrgency is "3" (Low). Urgency values are "1".."3".
const DefaultUrgency = "3"

// ConversationState is the persisted per-conversation record. A nil
// pointer is equivalent to waiting_for = none.
type ConversationState struct {
	WaitingFor       WaitingFor `json:"waiting_for"`
	ActionType       ActionType `json:"action_type,omitempty"`
	ShortDescription string     `json:"short_description,omitempty"`
	Urgency          string     `json:"urgency,omitempty"`
	Location         string     `json:"location,omitempty"`
	SoftwareName     string     `json:"software_name,omitempty"`
}

// Waiting is a nil-safe accessor for the pending slot.
func (s *ConversationState) Waiting() WaitingFor {
	if s == nil {
		return WaitingNone
	}
	return s.WaitingFor
}

// Action is the closed set of branch tags an ActionResult can carry.
// The transport matches on these instead of free-form strings.
type Action string

const (
	// Ticket status flow
	ActionAskTicketNumber Action = "ask_ticket_number"
	ActionReportStatus    Action = "report_status"
	ActionReportError     Action = "report_error"

	// Ticket creation flow
	ActionConfirmCreateTicket Action = "confirm_create_ticket"
	ActionSelectUrgency       Action = "select_ticket_urgency"
	ActionUrgencySelected     Action = "create_ticket_urgency_selected"
	ActionTicketCreated       Action = "ticket_created"

	// Password reset flow
	ActionConfirmReset           Action = "confirm_reset"
	ActionPasswordResetConfirmed Action = "password_reset_confirmed"
	ActionPasswordResetReceived  Action = "password_reset_received"

	// Software request flow
	ActionConfirmSoftwareRequest Action = "confirm_software_request"
	ActionAskSoftwareName        Action = "ask_software_name"
	ActionSoftwareRequested      Action = "execute_software_request"

	// Knowledge base flow
	ActionAskKBQuery      Action = "ask_kb_query"
	ActionProvideKBAnswer Action = "provide_kb_answer"

	// Shared
	ActionAskAgain  Action = "ask_again"
	ActionConfirmed Action = "confirmed"
	ActionCancelled Action = "cancelled"
	ActionGreeting  Action = "greeting"
	ActionGeneral   Action = "respond_general"
	ActionClarify   Action = "clarify"
	ActionFailure   Action = "error"

	// Emitted by the orchestration layer, never by the engine.
	ActionDuplicateSuppressed Action = "duplicate_suppressed"
)

// ResponseType selects plain text or rich block rendering.
type ResponseType string

const (
	ResponseText   ResponseType = "text"
	ResponseBlocks ResponseType = "blocks"
)

// BlocksConfig is an opaque payload for rich rendering. The engine only
// passes it through; the transport interprets it.
type BlocksConfig struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ActionResult is the engine's decision for one turn.
type ActionResult struct {
	Action       Action                 `json:"action"`
	Response     string                 `json:"response"`
	ResponseType ResponseType           `json:"response_type,omitempty"`
	BlocksConfig *BlocksConfig          `json:"blocks_config,omitempty"`
	NextState    *ConversationState     `json:"next_state"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

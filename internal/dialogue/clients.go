// internal/dialogue/clients.go
package dialogue

import "context"

// TicketStatus is the ticketing system's view of one record.
type TicketStatus struct {
	Found            bool   `json:"found"`
	State            string `json:"state"`
	Priority         string `json:"priority"`
	ShortDescription string `json:"short_description"`
	UpdatedAt        string `json:"updated_at"`
}

// SoftwareRequestResult is the outcome of a submitted software request.
type SoftwareRequestResult struct {
	TicketID  string `json:"ticket_id"`
	Simulated bool   `json:"simulated,omitempty"`
}

// TicketingClient is the workflow contract for ticket lookup and creation.
type TicketingClient interface {
	GetStatus(ctx context.Context, ticketID string) (*TicketStatus, error)
	CreateTicket(ctx context.Context, shortDescription, description, urgency string) (string, error)
}

// KnowledgeClient answers a free-text query from the knowledge base.
type KnowledgeClient interface {
	Answer(ctx context.Context, query string) (string, error)
}

// SoftwareClient submits a software request on behalf of a user.
type SoftwareClient interface {
	Submit(ctx context.Context, requesterID, softwareName string) (*SoftwareRequestResult, error)
}

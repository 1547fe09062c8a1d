// internal/clients/software/software.go
//
// Software request submission. Requests ride on the same ticketing
// backend as incidents; when the backend is unreachable the request is
// acknowledged with a simulated tracking id so the help desk can pick
// it up manually from the audit trail.
package software

import (
	"context"
	"fmt"
	"math/rand/v2"

	"itbot/internal/common/logger"
	"itbot/internal/dialogue"
)

type Client struct {
	ticketing dialogue.TicketingClient
	logger    logger.Logger
}

func NewClient(ticketing dialogue.TicketingClient, log logger.Logger) *Client {
	return &Client{
		ticketing: ticketing,
		logger:    log.WithFields(map[string]interface{}{"component": "software-client"}),
	}
}

func (c *Client) Submit(ctx context.Context, requesterID, softwareName string) (*dialogue.SoftwareRequestResult, error) {
	shortDescription := fmt.Sprintf("Software Request: %s", softwareName)
	description := fmt.Sprintf("Software installation request for %q submitted via chat by %s.", softwareName, requesterID)

	ticketID, err := c.ticketing.CreateTicket(ctx, shortDescription, description, "3")
	if err != nil {
		simulated := fmt.Sprintf("RITM%06d", rand.IntN(1000000))
		c.logger.WithError(err).Warn("ticketing unavailable, issuing simulated request id", map[string]interface{}{
			"software":    softwareName,
			"simulatedId": simulated,
		})
		return &dialogue.SoftwareRequestResult{TicketID: simulated, Simulated: true}, nil
	}

	return &dialogue.SoftwareRequestResult{TicketID: ticketID}, nil
}

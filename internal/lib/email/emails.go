package email

import (
	"context"
	"fmt"
	"strconv"
)

// NewLead is the content of the staff notification for a new lead.
type NewLead struct {
	LeadID       string
	Name         string
	Email        string
	Phone        string
	ServiceType  string
	SquareMeters *int
	Frequency    string
	Message      string
}

func (l NewLead) templateData() map[string]string {
	data := map[string]string{
		"LeadID":      l.LeadID,
		"Name":        l.Name,
		"Email":       l.Email,
		"Phone":       l.Phone,
		"ServiceType": l.ServiceType,
		"Frequency":   l.Frequency,
		"Message":     l.Message,
	}
	if l.SquareMeters != nil {
		data["SquareMeters"] = strconv.Itoa(*l.SquareMeters)
	}
	return data
}

// SendNewLeadEmail tells staff at to that a new lead came in.
func (c *Client) SendNewLeadEmail(ctx context.Context, to string, lead NewLead) error {
	return c.SendEmail(
		ctx,
		to,
		fmt.Sprintf("Nuova richiesta: %s (%s)", lead.ServiceType, lead.Name),
		TemplateNewLead,
		lead.templateData(),
	)
}

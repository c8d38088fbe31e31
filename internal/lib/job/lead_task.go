package job

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/vdpulizie/internal/model"
	"github.com/hibiken/asynq"
)

const (
	// TaskLeadNotify is the job type name stored in Redis.
	TaskLeadNotify = "lead:notify"
)

// LeadNotificationPayload is the JSON payload of a TaskLeadNotify task.
type LeadNotificationPayload struct {
	LeadID       string  `json:"lead_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	ServiceType  string  `json:"service_type"`
	SquareMeters *int    `json:"square_meters,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	Message      *string `json:"message,omitempty"`
}

func newLeadNotificationPayload(id string, lead *model.Lead) LeadNotificationPayload {
	p := LeadNotificationPayload{
		LeadID:       id,
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		ServiceType:  string(lead.ServiceType),
		SquareMeters: lead.SquareMeters,
		Message:      lead.Message,
	}
	if lead.Frequency != nil {
		f := string(*lead.Frequency)
		p.Frequency = &f
	}
	return p
}

// NewLeadNotificationTask builds the task that emails staff about a new
// lead. It retries three times in the critical queue.
func NewLeadNotificationTask(id string, lead *model.Lead) (*asynq.Task, error) {
	payload, err := json.Marshal(newLeadNotificationPayload(id, lead))
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskLeadNotify,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Second),
	), nil
}

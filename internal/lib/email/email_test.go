package email

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (s *stubSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, params)
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func newTestClient(s sender) *Client {
	logger := zerolog.Nop()
	return &Client{emails: s, from: "noreply@vdpulizie.it", logger: &logger}
}

func TestRender_Preview(t *testing.T) {
	for name, data := range PreviewData {
		body, err := Render(name, data)
		require.NoError(t, err, name)
		for _, v := range data {
			assert.Contains(t, body, v, name)
		}
	}
}

func TestRender_EscapesInput(t *testing.T) {
	body, err := Render(TemplateNewLead, map[string]string{"Name": "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render("missing", nil)
	assert.Error(t, err)
}

func TestSendNewLeadEmail(t *testing.T) {
	stub := &stubSender{}
	c := newTestClient(stub)
	sqm := 80

	err := c.SendNewLeadEmail(context.Background(), "staff@vdpulizie.it", NewLead{
		LeadID:       "abc",
		Name:         "Mario Rossi",
		Email:        "m@example.com",
		Phone:        "123",
		ServiceType:  "Uffici",
		SquareMeters: &sqm,
	})
	require.NoError(t, err)
	require.Len(t, stub.sent, 1)

	req := stub.sent[0]
	assert.Equal(t, []string{"staff@vdpulizie.it"}, req.To)
	assert.Equal(t, "VD Pulizie <noreply@vdpulizie.it>", req.From)
	assert.Equal(t, "Nuova richiesta: Uffici (Mario Rossi)", req.Subject)
	assert.Contains(t, req.Html, "80")
	assert.NotContains(t, req.Html, "Frequenza")
}

func TestSendEmail_ProviderError(t *testing.T) {
	c := newTestClient(&stubSender{err: errors.New("invalid api key")})

	err := c.SendEmail(context.Background(), "staff@vdpulizie.it", "x", TemplateNewLead, PreviewData[TemplateNewLead])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

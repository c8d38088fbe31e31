package email

// PreviewData holds sample template data for local previews and tests:
//
//	PreviewData["new_lead"]["Name"] == "Mario Rossi"
var PreviewData = map[Template]map[string]string{
	TemplateNewLead: {
		"LeadID":       "3f0c8c1e-6f5b-4b7e-9a43-2f1f0c5d9e11",
		"Name":         "Mario Rossi",
		"Email":        "m@example.com",
		"Phone":        "123",
		"ServiceType":  "Uffici",
		"SquareMeters": "120",
		"Frequency":    "Settimanale",
		"Message":      "Ufficio al secondo piano, disponibile dopo le 18.",
	},
}

package entity

import "errors"

// GatewayMessageRequest is the send-message body of the WhatsApp gateway
type GatewayMessageRequest struct {
	CompanyID   string         `json:"companyId"`
	AgentID     string         `json:"agentId"`
	PhoneNumber string         `json:"phoneNumber"`
	Message     GatewayMessage `json:"message"`
	Type        string         `json:"type"`
}

// GatewayMessage is the message part of a gateway request; only text is sent
type GatewayMessage struct {
	Text string `json:"text,omitempty"`
}

// Validate rejects empty messages before they reach the gateway
func (m GatewayMessage) Validate() error {
	if m.Text == "" {
		return errors.New("message text is required")
	}
	return nil
}

// GatewayResponse is the envelope the gateway answers with
type GatewayResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TaskID string `json:"taskId"`
		Status string `json:"status"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// SMSService delivers one-time codes through an HTTP SMS gateway. When
// no gateway is configured the code is logged instead, which keeps
// local development working without credentials. Delivery outcome never
// affects whether a generated code was accepted into state.
type SMSService struct {
	gatewayURL string
	apiKey     string
	sender     string
	client     *http.Client
}

// NewSMSService creates a new SMSService.
func NewSMSService(gatewayURL, apiKey, sender string) *SMSService {
	return &SMSService{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		sender:     sender,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type smsMessage struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// Send delivers the verification code to the destination number.
func (s *SMSService) Send(destination, code string) error {
	if s.gatewayURL == "" {
		log.Printf("[SMS] gateway not configured, code for %s: %s", destination, code)
		return nil
	}

	msg := smsMessage{
		From: s.sender,
		To:   destination,
		Body: fmt.Sprintf("Your verification code is %s", code),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[SMS] failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[SMS] unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}

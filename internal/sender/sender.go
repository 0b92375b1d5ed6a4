// internal/sender/sender.go
package sender

import (
    "bytes"
    "encoding/json"
    "fmt"
    "log"
    "math/rand"
    "net/http"
    "os"
    "time"

    "github.com/leadloop/followup-backend/internal/model"
)

// Sender is the messaging collaborator boundary. The engine only knows how to
// hand a rendered message to it and read back a delivery receipt.
type Sender interface {
    Send(conversation *model.Conversation, body string) (string, error)
}

// GatewaySender posts messages to the WhatsApp HTTP gateway.
type GatewaySender struct {
    BaseURL string
    Client  *http.Client
}

// NewGatewaySenderFromEnv builds a sender from GATEWAY_URL with a bounded
// timeout; a timed-out send counts as a send failure.
func NewGatewaySenderFromEnv() *GatewaySender {
    return &GatewaySender{
        BaseURL: os.Getenv("GATEWAY_URL"),
        Client:  &http.Client{Timeout: 15 * time.Second},
    }
}

func (s *GatewaySender) Send(conversation *model.Conversation, body string) (string, error) {
    payload, _ := json.Marshal(map[string]string{
        "phone":   conversation.Phone,
        "message": body,
    })

    resp, err := s.Client.Post(s.BaseURL+"/messages", "application/json", bytes.NewReader(payload))
    if err != nil {
        return "", err
    }
    defer resp.Body.Close()

    if resp.StatusCode >= 300 {
        return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
    }

    var receipt struct {
        MessageID string `json:"message_id"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
        return "", err
    }

    log.Println("✅ Message delivered, receipt:", receipt.MessageID)
    return receipt.MessageID, nil
}

//////////////////////////
// Example Mock Sender  //
//////////////////////////

// MockSender simulates sending messages with 90% success
type MockSender struct{}

func (s *MockSender) Send(conversation *model.Conversation, body string) (string, error) {
    r := rand.Float64()
    if r < 0.9 {
        return fmt.Sprintf("mock-%d-%d", conversation.ID, time.Now().UnixNano()), nil // success
    }
    return "", fmt.Errorf("mock sending failed")
}

var _ Sender = (*GatewaySender)(nil)
var _ Sender = (*MockSender)(nil)

// Package streaming defines the wire envelope carried over Kafka between the
// gateway and the cacheworker: one auto-create-account event per message,
// per spec.md §6's cache contract.
package streaming

import (
	"encoding/json"
	"errors"
)

type MessageType string

const MessageTypeAutoCreateAccount MessageType = "auto_create_account"

// Message is the JSON envelope published for an AutoCreateAccountCacheEntry.
// TraceID carries the producing span across the Kafka hop so the cacheworker
// can continue the same trace.
type Message struct {
	Type        MessageType `json:"type"`
	TraceID     string      `json:"trace_id,omitempty"`
	EthTxHash   string      `json:"eth_tx_hash"`
	Tx          string      `json:"tx"`
	FromAddress string      `json:"from_address"`
}

func Encode(msg Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, errors.New("message type is required")
	}
	if msg.EthTxHash == "" {
		return nil, errors.New("eth_tx_hash is required")
	}
	return json.Marshal(msg)
}

func Decode(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Type == "" {
		return Message{}, errors.New("message type is missing")
	}
	if msg.EthTxHash == "" {
		return Message{}, errors.New("eth_tx_hash is missing")
	}
	return msg, nil
}

package gatewayapi

import (
	"sync"
	"time"
)

// Metrics counts transcoded transactions, auto-create-account events and
// failures by kind, adapted from the teacher's httpapi.Metrics: same
// snapshot/copy-on-read shape, different counters.
type Metrics struct {
	mu sync.RWMutex

	startTime time.Time

	transcoded         uint64
	autoCreateAccounts uint64

	decodeErrors      uint64
	signatureErrors   uint64
	validationErrors  uint64
	insufficientFunds uint64
	recipientNotFound uint64
	upstreamErrors    uint64
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncTranscoded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcoded++
}

func (m *Metrics) IncAutoCreateAccount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoCreateAccounts++
}

func (m *Metrics) IncDecodeError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decodeErrors++
}

func (m *Metrics) IncSignatureError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signatureErrors++
}

func (m *Metrics) IncValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validationErrors++
}

func (m *Metrics) IncInsufficientFunds() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insufficientFunds++
}

func (m *Metrics) IncRecipientNotFound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipientNotFound++
}

func (m *Metrics) IncUpstreamError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamErrors++
}

type Snapshot struct {
	StartTime          time.Time
	Transcoded         uint64
	AutoCreateAccounts uint64
	DecodeErrors       uint64
	SignatureErrors    uint64
	ValidationErrors   uint64
	InsufficientFunds  uint64
	RecipientNotFound  uint64
	UpstreamErrors     uint64
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		StartTime:          m.startTime,
		Transcoded:         m.transcoded,
		AutoCreateAccounts: m.autoCreateAccounts,
		DecodeErrors:       m.decodeErrors,
		SignatureErrors:    m.signatureErrors,
		ValidationErrors:   m.validationErrors,
		InsufficientFunds:  m.insufficientFunds,
		RecipientNotFound:  m.recipientNotFound,
		UpstreamErrors:     m.upstreamErrors,
	}
}

// Observe classifies err by its domain kind and increments the matching
// counter. A nil err increments nothing.
func (m *Metrics) Observe(err error) {
	switch classifyError(err) {
	case kindDecode:
		m.IncDecodeError()
	case kindSignature:
		m.IncSignatureError()
	case kindValidation:
		m.IncValidationError()
	case kindInsufficientFunds:
		m.IncInsufficientFunds()
	case kindRecipientNotFound:
		m.IncRecipientNotFound()
	case kindUpstream:
		m.IncUpstreamError()
	}
}

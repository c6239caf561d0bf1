package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/teris-io/shortid"
)

// SandboxGateway хранит намерения в памяти. Авторизация сразу переводит
// намерение в requires_capture, как будто покупатель подтвердил карту.
type SandboxGateway struct {
	mu        sync.Mutex
	ids       *shortid.Shortid
	intents   map[string]*Intent
	transfers map[string]TransferRequest
	refunds   map[string]bool
}

// NewSandboxGateway создаёт пустую песочницу.
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{
		ids:       shortid.MustNew(0, shortid.DefaultABC, 2342),
		intents:   make(map[string]*Intent),
		transfers: make(map[string]TransferRequest),
		refunds:   make(map[string]bool),
	}
}

func (g *SandboxGateway) newID(prefix string) string {
	return prefix + "_sandbox_" + g.ids.MustGenerate()
}

func (g *SandboxGateway) Authorize(_ context.Context, req AuthorizeRequest) (*Intent, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("sandbox: amount must be positive")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.newID("pi")
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + g.ids.MustGenerate(),
		Status:       StatusRequiresCapture,
		AmountCents:  req.AmountCents,
		Metadata:     req.Metadata,
	}
	g.intents[id] = intent
	cp := *intent
	return &cp, nil
}

func (g *SandboxGateway) Get(_ context.Context, intentID string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	cp := *intent
	return &cp, nil
}

func (g *SandboxGateway) Capture(_ context.Context, intentID string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	if intent.Status != StatusRequiresCapture {
		return nil, fmt.Errorf("sandbox: cannot capture intent in status %s", intent.Status)
	}
	intent.Status = StatusSucceeded
	intent.ChargeID = g.newID("ch")
	cp := *intent
	return &cp, nil
}

func (g *SandboxGateway) Cancel(_ context.Context, intentID string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	if intent.Status == StatusSucceeded {
		return nil, fmt.Errorf("sandbox: cannot cancel captured intent")
	}
	intent.Status = StatusCanceled
	cp := *intent
	return &cp, nil
}

func (g *SandboxGateway) Refund(_ context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return ErrIntentNotFound
	}
	if intent.Status != StatusSucceeded {
		return fmt.Errorf("sandbox: cannot refund intent in status %s", intent.Status)
	}
	if g.refunds[intentID] {
		return fmt.Errorf("sandbox: intent already refunded")
	}
	g.refunds[intentID] = true
	return nil
}

func (g *SandboxGateway) Transfer(_ context.Context, req TransferRequest) (string, error) {
	if req.AmountCents <= 0 {
		return "", fmt.Errorf("sandbox: transfer amount must be positive")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.newID("tr")
	g.transfers[id] = req
	return id, nil
}

// Transfers возвращает копию выполненных переводов.
func (g *SandboxGateway) Transfers() map[string]TransferRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]TransferRequest, len(g.transfers))
	for k, v := range g.transfers {
		out[k] = v
	}
	return out
}

// Refunded сообщает, был ли возврат по намерению.
func (g *SandboxGateway) Refunded(intentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refunds[intentID]
}

// Package api provides the transport-neutral rulekeeper service and its gRPC
// binding. The HTTP binding in internal/core/server calls the same Service.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solatis/rulekeeper/internal/core/auth"
	"github.com/solatis/rulekeeper/internal/core/config"
	"github.com/solatis/rulekeeper/internal/core/store"
	"github.com/solatis/rulekeeper/internal/logging"
	"github.com/solatis/rulekeeper/internal/rules"
	"github.com/solatis/rulekeeper/internal/types"
)

// Service implements every rulekeeper operation over JSON-shaped messages.
// Thin orchestration layer delegating to rules, conflict and store packages.
// Inputs are validated here so the core never sees malformed arguments.
type Service struct {
	engine *rules.Engine
	store  *store.Store
	cfg    *config.ServerConfig
	logger *slog.Logger
}

// NewService creates service instance with dependencies.
// A nil store disables stored rule sets and ledgers.
func NewService(engine *rules.Engine, st *store.Store, cfg *config.ServerConfig, logger *slog.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{engine: engine, store: st, cfg: cfg, logger: logger}, nil
}

// RuleSource names the rules a request runs against: inline rules, or the
// name of a stored rule set. Inline rules win when both are given.
type RuleSource struct {
	Rules   any    `json:"rules,omitempty"`
	RuleSet string `json:"rule_set,omitempty"`
}

// tenant returns the authenticated tenant, or DefaultTenant without auth.
func tenant(ctx context.Context) string {
	if id := auth.TenantIDFromContext(ctx); id != "" {
		return id
	}
	return auth.DefaultTenant
}

// withTimeout bounds store access by the configured request timeout.
func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.RequestTimeout)
}

func (s *Service) requireStore() error {
	if s.store == nil {
		return ErrStoreDisabled
	}
	return nil
}

// resolveRules turns a RuleSource into a well-formed RuleSet. Malformed
// entries are dropped and counted; a non-array payload is rejected.
func (s *Service) resolveRules(ctx context.Context, src RuleSource) (types.RuleSet, int, error) {
	var rs types.RuleSet
	dropped := 0

	switch {
	case src.Rules != nil:
		var err error
		rs, dropped, err = types.RuleSetFromAny(src.Rules)
		if err != nil {
			return nil, 0, err
		}
	case src.RuleSet != "":
		if err := s.requireStore(); err != nil {
			return nil, 0, err
		}
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		stored, err := s.store.GetRuleSet(ctx, tenant(ctx), src.RuleSet)
		if err != nil {
			return nil, 0, err
		}
		rs = stored.Rules
	}

	if err := s.checkRuleCount(len(rs)); err != nil {
		return nil, 0, err
	}
	if dropped > 0 {
		s.logger.Debug("dropped malformed rules", "dropped", dropped, "kept", len(rs))
	}
	return rs, dropped, nil
}

func (s *Service) checkRuleCount(n int) error {
	if s.cfg.MaxRules > 0 && n > s.cfg.MaxRules {
		return fmt.Errorf("%w: %d rules, limit %d", types.ErrTooManyRules, n, s.cfg.MaxRules)
	}
	return nil
}

func (s *Service) checkText(text string) error {
	if s.cfg.MaxTextBytes > 0 && len(text) > s.cfg.MaxTextBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", types.ErrTextTooLarge, len(text), s.cfg.MaxTextBytes)
	}
	return nil
}

// elapsed logs a completed operation at debug level.
func (s *Service) elapsed(op string, start time.Time, attrs ...any) {
	s.logger.Debug(op, append(attrs, "duration", time.Since(start))...)
}

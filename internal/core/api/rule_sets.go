package api

import (
	"context"

	"github.com/solatis/rulekeeper/internal/core/store"
	"github.com/solatis/rulekeeper/internal/types"
)

// SaveRuleSetRequest stores rules under a name, replacing any previous set.
type SaveRuleSetRequest struct {
	Name  string `json:"name"`
	Rules any    `json:"rules"`
}

// RuleSetRequest names one stored rule set.
type RuleSetRequest struct {
	Name string `json:"name"`
}

// RuleSetResponse carries one stored rule set.
type RuleSetResponse struct {
	RuleSet store.StoredRuleSet `json:"rule_set"`
	Dropped int                 `json:"dropped"`
}

// ListRuleSetsResponse carries every stored rule set of the tenant.
type ListRuleSetsResponse struct {
	RuleSets []store.StoredRuleSet `json:"rule_sets"`
}

// SaveRuleSet validates and stores rules.
func (s *Service) SaveRuleSet(ctx context.Context, req SaveRuleSetRequest) (RuleSetResponse, error) {
	if err := s.requireStore(); err != nil {
		return RuleSetResponse{}, err
	}
	if err := store.ValidateRuleSetName(req.Name); err != nil {
		return RuleSetResponse{}, err
	}
	rs, dropped, err := types.RuleSetFromAny(req.Rules)
	if err != nil {
		return RuleSetResponse{}, err
	}
	if err := s.checkRuleCount(len(rs)); err != nil {
		return RuleSetResponse{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	stored, err := s.store.SaveRuleSet(ctx, tenant(ctx), req.Name, rs)
	if err != nil {
		return RuleSetResponse{}, err
	}
	s.logger.Info("rule set saved", "name", stored.Name, "rules", len(rs), "fingerprint", stored.Fingerprint)
	return RuleSetResponse{RuleSet: stored, Dropped: dropped}, nil
}

// GetRuleSet loads one stored rule set.
func (s *Service) GetRuleSet(ctx context.Context, req RuleSetRequest) (RuleSetResponse, error) {
	if err := s.requireStore(); err != nil {
		return RuleSetResponse{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	stored, err := s.store.GetRuleSet(ctx, tenant(ctx), req.Name)
	if err != nil {
		return RuleSetResponse{}, err
	}
	return RuleSetResponse{RuleSet: stored}, nil
}

// ListRuleSets lists the tenant's stored rule sets.
func (s *Service) ListRuleSets(ctx context.Context) (ListRuleSetsResponse, error) {
	if err := s.requireStore(); err != nil {
		return ListRuleSetsResponse{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	sets, err := s.store.ListRuleSets(ctx, tenant(ctx))
	if err != nil {
		return ListRuleSetsResponse{}, err
	}
	return ListRuleSetsResponse{RuleSets: sets}, nil
}

// DeleteRuleSet removes a stored rule set.
func (s *Service) DeleteRuleSet(ctx context.Context, req RuleSetRequest) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.store.DeleteRuleSet(ctx, tenant(ctx), req.Name); err != nil {
		return err
	}
	s.logger.Info("rule set deleted", "name", req.Name)
	return nil
}

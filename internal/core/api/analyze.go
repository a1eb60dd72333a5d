package api

import (
	"context"
	"fmt"

	"github.com/solatis/rulekeeper/internal/conflict"
	"github.com/solatis/rulekeeper/internal/types"
)

// AnalyzeRequest names the rules to analyze.
type AnalyzeRequest struct {
	RuleSource
}

// AnalyzeResponse carries the structured report and its text rendering.
type AnalyzeResponse struct {
	Report  conflict.Report `json:"report"`
	Text    string          `json:"text"`
	Dropped int             `json:"dropped"`
}

// Analyze runs conflict analysis.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error) {
	rs, dropped, err := s.resolveRules(ctx, req.RuleSource)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	report := conflict.Analyze(rs)
	return AnalyzeResponse{
		Report:  report,
		Text:    conflict.FormatReport(report),
		Dropped: dropped,
	}, nil
}

// ApplyFixRequest applies one conflict's autofix. With Save set and a stored
// rule set named, the fixed rules replace the stored ones.
type ApplyFixRequest struct {
	RuleSource
	Conflict conflict.Conflict `json:"conflict"`
	Save     bool              `json:"save,omitempty"`
}

// ApplyFixAllRequest applies every fixable conflict. Without conflicts the
// rules are analyzed first and all of their fixes applied.
type ApplyFixAllRequest struct {
	RuleSource
	Conflicts []conflict.Conflict `json:"conflicts,omitempty"`
	Save      bool                `json:"save,omitempty"`
}

// FixResponse carries the fixed rules and what is left unfixed.
type FixResponse struct {
	Rules       types.RuleSet       `json:"rules"`
	Unfixed     []conflict.Conflict `json:"unfixed"`
	Fingerprint string              `json:"fingerprint,omitempty"`
}

// ApplyFix applies c's autofix. A conflict without one leaves the rules
// unchanged and is returned as unfixed.
func (s *Service) ApplyFix(ctx context.Context, req ApplyFixRequest) (FixResponse, error) {
	rs, _, err := s.resolveRules(ctx, req.RuleSource)
	if err != nil {
		return FixResponse{}, err
	}

	fixed, err := conflict.ApplyFix(rs, req.Conflict)
	if err != nil {
		return FixResponse{}, err
	}
	resp := FixResponse{Rules: fixed, Unfixed: []conflict.Conflict{}}
	if !req.Conflict.Fixable() {
		resp.Unfixed = append(resp.Unfixed, req.Conflict)
	}
	return s.saveFixed(ctx, req.RuleSource, req.Save, resp)
}

// ApplyFixAll applies every fixable conflict in one pass.
func (s *Service) ApplyFixAll(ctx context.Context, req ApplyFixAllRequest) (FixResponse, error) {
	rs, _, err := s.resolveRules(ctx, req.RuleSource)
	if err != nil {
		return FixResponse{}, err
	}

	conflicts := req.Conflicts
	if conflicts == nil {
		conflicts = conflict.Analyze(rs).Conflicts
	}
	fixed, unfixed, err := conflict.ApplyFixAll(rs, conflicts)
	if err != nil {
		return FixResponse{}, err
	}
	return s.saveFixed(ctx, req.RuleSource, req.Save, FixResponse{Rules: fixed, Unfixed: unfixed})
}

func (s *Service) saveFixed(ctx context.Context, src RuleSource, save bool, resp FixResponse) (FixResponse, error) {
	if !save {
		return resp, nil
	}
	if src.RuleSet == "" {
		return FixResponse{}, fmt.Errorf("%w: save needs a stored rule_set", ErrInvalidRequest)
	}
	if err := s.requireStore(); err != nil {
		return FixResponse{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	stored, err := s.store.SaveRuleSet(ctx, tenant(ctx), src.RuleSet, resp.Rules)
	if err != nil {
		return FixResponse{}, err
	}
	resp.Fingerprint = stored.Fingerprint
	return resp, nil
}

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/solatis/rulekeeper/internal/types"
)

// TransformRequest applies rules to text in one direction and mode.
type TransformRequest struct {
	RuleSource
	Text      string `json:"text"`
	Direction string `json:"direction"`
	Mode      string `json:"mode"`
}

// TransformResponse carries the transformed text.
type TransformResponse struct {
	Result      string `json:"result"`
	Dropped     int    `json:"dropped"`
	Accelerated bool   `json:"accelerated"`
}

// Transform validates the call arguments and runs the engine.
// Direction and mode default to encode and substring when empty.
func (s *Service) Transform(ctx context.Context, req TransformRequest) (TransformResponse, error) {
	start := time.Now()

	dir := types.DirectionEncode
	if req.Direction != "" {
		var err error
		if dir, err = types.ParseDirection(req.Direction); err != nil {
			return TransformResponse{}, err
		}
	}
	mode := types.ModeSubstring
	if req.Mode != "" {
		var err error
		if mode, err = types.ParseMode(req.Mode); err != nil {
			return TransformResponse{}, err
		}
	}
	if err := s.checkText(req.Text); err != nil {
		return TransformResponse{}, err
	}

	rs, dropped, err := s.resolveRules(ctx, req.RuleSource)
	if err != nil {
		return TransformResponse{}, err
	}

	resp := TransformResponse{
		Result:      s.engine.Transform(req.Text, rs, dir, mode),
		Dropped:     dropped,
		Accelerated: s.engine.UsesAccelerated(rs, dir),
	}
	s.elapsed("transform", start, "rules", len(rs), "direction", dir.String(), "mode", mode.String())
	return resp, nil
}

// EncodeTrackedRequest runs a tracked encode. With Persist set the applied
// log is stored for the configured TTL and only its id needs to travel back.
type EncodeTrackedRequest struct {
	RuleSource
	Text    string `json:"text"`
	Persist bool   `json:"persist,omitempty"`
}

// EncodeTrackedResponse carries the encoded text and its applied log.
type EncodeTrackedResponse struct {
	Result     string           `json:"result"`
	AppliedLog types.AppliedLog `json:"applied_log"`
	LedgerID   types.LedgerID   `json:"ledger_id,omitempty"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty"`
	Dropped    int              `json:"dropped"`
}

// EncodeTracked encodes text and records the rules that changed it.
func (s *Service) EncodeTracked(ctx context.Context, req EncodeTrackedRequest) (EncodeTrackedResponse, error) {
	if err := s.checkText(req.Text); err != nil {
		return EncodeTrackedResponse{}, err
	}
	if req.Persist {
		if err := s.requireStore(); err != nil {
			return EncodeTrackedResponse{}, err
		}
	}

	rs, dropped, err := s.resolveRules(ctx, req.RuleSource)
	if err != nil {
		return EncodeTrackedResponse{}, err
	}

	result, log := s.engine.EncodeTracked(req.Text, rs)
	resp := EncodeTrackedResponse{Result: result, AppliedLog: log, Dropped: dropped}
	if !req.Persist {
		return resp, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	id, err := s.store.SaveLedger(ctx, tenant(ctx), log, s.cfg.LedgerTTL)
	if err != nil {
		return EncodeTrackedResponse{}, err
	}
	expires := time.Now().Add(s.cfg.LedgerTTL).UTC()
	resp.LedgerID = id
	resp.ExpiresAt = &expires
	s.logger.Debug("ledger saved", "ledger_id", id, "entries", len(log))
	return resp, nil
}

// DecodeTrackedRequest inverts a tracked encode from an inline applied log
// or a stored ledger. Exactly one of the two may be given.
type DecodeTrackedRequest struct {
	Text       string `json:"text"`
	AppliedLog any    `json:"applied_log,omitempty"`
	LedgerID   string `json:"ledger_id,omitempty"`
}

// DecodeTrackedResponse carries the restored text. Dropped counts inline
// log entries that could not be read; a non-zero value means the decode is
// not an exact inverse.
type DecodeTrackedResponse struct {
	Result  string `json:"result"`
	Dropped int    `json:"dropped"`
}

// DecodeTracked restores text using its applied log. Stale entries are
// skipped rather than failing the decode.
func (s *Service) DecodeTracked(ctx context.Context, req DecodeTrackedRequest) (DecodeTrackedResponse, error) {
	if req.AppliedLog != nil && req.LedgerID != "" {
		return DecodeTrackedResponse{}, fmt.Errorf("%w: give applied_log or ledger_id, not both", ErrInvalidRequest)
	}
	if err := s.checkText(req.Text); err != nil {
		return DecodeTrackedResponse{}, err
	}

	var log types.AppliedLog
	var dropped int
	switch {
	case req.LedgerID != "":
		if err := s.requireStore(); err != nil {
			return DecodeTrackedResponse{}, err
		}
		id, err := types.ParseLedgerID(req.LedgerID)
		if err != nil {
			return DecodeTrackedResponse{}, err
		}
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		ledger, err := s.store.GetLedger(ctx, tenant(ctx), id)
		if err != nil {
			return DecodeTrackedResponse{}, err
		}
		log = ledger.Log
	case req.AppliedLog != nil:
		rs, n, err := types.RuleSetFromAny(req.AppliedLog)
		if err != nil {
			return DecodeTrackedResponse{}, err
		}
		if err := s.checkRuleCount(len(rs)); err != nil {
			return DecodeTrackedResponse{}, err
		}
		log = types.AppliedLog(rs)
		dropped = n
		if dropped > 0 {
			s.logger.Warn("dropped malformed applied log entries", "dropped", dropped, "kept", len(rs))
		}
	}

	return DecodeTrackedResponse{Result: s.engine.DecodeTracked(req.Text, log), Dropped: dropped}, nil
}

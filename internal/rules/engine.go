// internal/rules/engine.go
package rules

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/solatis/rulekeeper/internal/logging"
	"github.com/solatis/rulekeeper/internal/types"
	"golang.org/x/sync/singleflight"
)

/*
 * Transformation engine.
 *
 * Applies a RuleSet to text in one of three modes (substring, word, hybrid)
 * and one of two directions (encode, decode). Two interchangeable
 * implementations satisfy the Transformer contract:
 *
 *   - Baseline: re-sorts rules and rebuilds the exact-match table on every
 *     call. O(rules x text) per pass, no shared state.
 *   - Accelerated: builds an Index once per RuleSet fingerprint, memoizes
 *     results in an injected FIFO ResultCache, and collapses concurrent
 *     identical misses with singleflight.
 *
 * Engine picks Accelerated once a RuleSet has AcceleratedThreshold or more
 * valid rules. Both produce byte-identical output for the same input; the
 * cache is pure memoization and disabling it changes latency only.
 *
 * Hybrid order: the word pass runs first with keys of two or more codepoints,
 * then the substring pass with single-codepoint keys. Char rules run last so
 * they cannot pre-empt multi-character matches.
 *
 * No-ops: empty text or an empty RuleSet return the input unchanged. An
 * unknown Mode value also returns the input unchanged; mode names are
 * validated at the service boundary.
 */

const (
	// AcceleratedThreshold is the valid-rule count at which Engine switches to
	// the accelerated implementation. Fixed admission threshold, not a setting.
	AcceleratedThreshold = 100

	// DefaultCacheCapacity bounds the result cache.
	DefaultCacheCapacity = 1000

	// DefaultIndexMemoCapacity bounds the per-fingerprint index memo.
	DefaultIndexMemoCapacity = 64

	// DefaultChunkSize is the suggested chunk length in codepoints when
	// chunking is enabled with WithChunkSize.
	DefaultChunkSize = 10000

	// ChunkKeyRatio is how many times longer than the longest matching key a
	// chunk must be before chunking is admitted.
	ChunkKeyRatio = 16
)

// Transformer applies a RuleSet to text.
type Transformer interface {
	Transform(text string, rs types.RuleSet, dir types.Direction, mode types.Mode) string
}

// Baseline is the reference implementation. Zero value is ready to use.
type Baseline struct{}

// Transform implements Transformer.
func (Baseline) Transform(text string, rs types.RuleSet, dir types.Direction, mode types.Mode) string {
	if text == "" || len(rs) == 0 {
		return text
	}

	switch mode {
	case types.ModeSubstring:
		return applySubstring(text, orderedRules(rs, dir), dir)
	case types.ModeWord:
		return applyWord(text, exactTable(rs, dir), dir)
	case types.ModeHybrid:
		out := applyWord(text, exactTable(rs, dir), dir)
		return applySubstring(out, charRules(rs, dir), dir)
	default:
		return text
	}
}

// orderedRules filters empty keys and sorts by key length, descending, stable.
func orderedRules(rs types.RuleSet, dir types.Direction) []types.Rule {
	out := make([]types.Rule, 0, len(rs))
	for _, r := range rs {
		if r.Key(dir) != "" {
			out = append(out, r)
		}
	}
	sortByKeyLen(out, dir)
	return out
}

// exactTable maps matching keys to rules, last definition wins.
func exactTable(rs types.RuleSet, dir types.Direction) map[string]types.Rule {
	table := make(map[string]types.Rule, len(rs))
	for _, r := range rs {
		if key := r.Key(dir); key != "" {
			table[key] = r
		}
	}
	return table
}

// charRules returns rules with single-codepoint keys in RuleSet order.
func charRules(rs types.RuleSet, dir types.Direction) []types.Rule {
	var out []types.Rule
	for _, r := range rs {
		if r.KeyLen(dir) == 1 {
			out = append(out, r)
		}
	}
	return out
}

// Accelerated is the index- and cache-backed implementation.
// It is safe for concurrent use.
type Accelerated struct {
	cache     *ResultCache
	indexes   *FIFOCache[indexKey, *Index]
	flight    singleflight.Group
	chunkSize int
	logger    *slog.Logger
}

// NewAccelerated creates an accelerated transformer. A nil cache disables
// result memoization; indexMemo <= 0 disables the index memo.
func NewAccelerated(cache *ResultCache, indexMemo, chunkSize int, logger *slog.Logger) *Accelerated {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &Accelerated{
		cache:     cache,
		chunkSize: chunkSize,
		logger:    logger,
	}
	if indexMemo > 0 {
		a.indexes = NewFIFOCache[indexKey, *Index]("index", indexMemo)
	}
	return a
}

// Transform implements Transformer.
func (a *Accelerated) Transform(text string, rs types.RuleSet, dir types.Direction, mode types.Mode) string {
	if text == "" || len(rs) == 0 {
		return text
	}

	fp := Fingerprint(rs)
	key := ResultKey{
		Direction:   dir,
		Mode:        mode,
		Text:        text,
		RuleCount:   len(rs),
		Fingerprint: fp,
	}

	if a.cache != nil {
		if out, ok := a.cache.Get(key); ok {
			return out
		}
	}

	v, _, _ := a.flight.Do(flightKey(key), func() (any, error) {
		ix := a.index(rs, dir, fp)
		out := a.run(text, ix, mode)
		if a.cache != nil {
			a.cache.Put(key, out)
		}
		return out, nil
	})
	return v.(string) //nolint:errcheck // flight func only returns string
}

// index returns the memoized Index for fp, building it on a miss.
func (a *Accelerated) index(rs types.RuleSet, dir types.Direction, fp string) *Index {
	if a.indexes == nil {
		return BuildIndex(rs, dir)
	}
	k := indexKey{fingerprint: fp, direction: dir}
	if ix, ok := a.indexes.Get(k); ok {
		return ix
	}
	ix := BuildIndex(rs, dir)
	a.indexes.Put(k, ix)
	return ix
}

// run applies the mode, chunking large inputs when admitted.
func (a *Accelerated) run(text string, ix *Index, mode types.Mode) string {
	if !a.chunkAdmitted(text, ix) {
		return transformIndexed(text, ix, mode)
	}

	chunks := chunkRunes(text, a.chunkSize)
	a.logger.Debug("chunked transform",
		"chunks", len(chunks),
		"chunk_size", a.chunkSize,
		"max_key_len", ix.MaxKeyLen)

	var b strings.Builder
	b.Grow(len(text))
	for _, chunk := range chunks {
		b.WriteString(transformIndexed(chunk, ix, mode))
	}
	return b.String()
}

// chunkAdmitted reports whether text is long enough to chunk and the chunk
// size dwarfs the longest key. A key straddling a chunk boundary is still
// missed; chunking is an opt-in approximation.
func (a *Accelerated) chunkAdmitted(text string, ix *Index) bool {
	if a.chunkSize <= 0 {
		return false
	}
	if a.chunkSize < ChunkKeyRatio*ix.MaxKeyLen {
		return false
	}
	return utf8.RuneCountInString(text) > a.chunkSize
}

// transformIndexed applies mode using a prebuilt Index.
func transformIndexed(text string, ix *Index, mode types.Mode) string {
	switch mode {
	case types.ModeSubstring:
		return applySubstring(text, ix.Sorted, ix.Direction)
	case types.ModeWord:
		return applyWord(text, ix.Exact, ix.Direction)
	case types.ModeHybrid:
		out := applyWord(text, ix.Exact, ix.Direction)
		return applySubstring(out, ix.Chars, ix.Direction)
	default:
		return text
	}
}

// flightKey flattens a ResultKey into a singleflight key.
func flightKey(k ResultKey) string {
	var b strings.Builder
	b.Grow(len(k.Text) + len(k.Fingerprint) + 16)
	b.WriteString(strconv.Itoa(int(k.Direction)))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(int(k.Mode)))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.RuleCount))
	b.WriteByte('|')
	b.WriteString(k.Fingerprint)
	b.WriteByte('|')
	b.WriteString(k.Text)
	return b.String()
}

// Engine selects between Baseline and Accelerated by RuleSet size.
// Engine provides the dependency injection point for the service layer.
type Engine struct {
	baseline    Baseline
	accelerated *Accelerated
	logger      *slog.Logger
}

type engineOptions struct {
	cache     *ResultCache
	noCache   bool
	indexMemo int
	chunkSize int
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithCache injects the result cache. Passing nil disables result caching.
func WithCache(cache *ResultCache) Option {
	return func(o *engineOptions) {
		o.cache = cache
		o.noCache = cache == nil
	}
}

// WithIndexMemo sets the index memo capacity; zero disables it.
func WithIndexMemo(capacity int) Option {
	return func(o *engineOptions) { o.indexMemo = capacity }
}

// WithChunkSize enables chunked processing on the accelerated path.
// Zero (the default) disables chunking.
func WithChunkSize(codepoints int) Option {
	return func(o *engineOptions) { o.chunkSize = codepoints }
}

// WithLogger sets the engine logger. Defaults to discarding output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// NewEngine creates an engine. Without WithCache it owns a fresh result cache
// of DefaultCacheCapacity entries.
func NewEngine(opts ...Option) *Engine {
	o := engineOptions{indexMemo: DefaultIndexMemoCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil && !o.noCache {
		o.cache = NewResultCache(DefaultCacheCapacity)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}

	return &Engine{
		accelerated: NewAccelerated(o.cache, o.indexMemo, o.chunkSize, o.logger),
		logger:      o.logger,
	}
}

// Transform implements Transformer, routing by valid-rule count.
func (e *Engine) Transform(text string, rs types.RuleSet, dir types.Direction, mode types.Mode) string {
	if e.UsesAccelerated(rs, dir) {
		e.logger.Debug("accelerated transform", "rules", len(rs), "direction", dir.String(), "mode", mode.String())
		return e.accelerated.Transform(text, rs, dir, mode)
	}
	return e.baseline.Transform(text, rs, dir, mode)
}

// UsesAccelerated reports whether rs would take the accelerated path.
func (e *Engine) UsesAccelerated(rs types.RuleSet, dir types.Direction) bool {
	return rs.CountValid(dir) >= AcceleratedThreshold
}

// EncodeTracked runs a tracked encode. See EncodeTracked.
func (e *Engine) EncodeTracked(text string, rs types.RuleSet) (string, types.AppliedLog) {
	return EncodeTracked(text, rs)
}

// DecodeTracked inverts a tracked encode. See DecodeTracked.
func (e *Engine) DecodeTracked(text string, log types.AppliedLog) string {
	return DecodeTracked(text, log)
}

package searcher

import (
	"time"

	"knucklebones/config"
	"knucklebones/game"
	"knucklebones/meta"
)

type ContextOption func(c *Context)

func WithDice(dice game.Dice) ContextOption {
	return func(c *Context) {
		if dice != nil {
			c.dice = dice
		}
	}
}

func WithMaxNodes(nodes int) ContextOption {
	return func(c *Context) {
		if nodes > 0 {
			c.maxNodes = nodes
		}
	}
}

func WithTTLimit(entries int) ContextOption {
	return func(c *Context) {
		if entries > 0 {
			c.ttLimit = entries
		}
	}
}

func WithoutTT() ContextOption {
	return func(c *Context) {
		c.useTT = false
	}
}

// Stats describes the last search run on a context.
type Stats struct {
	Nodes    int           `json:"nodes" yaml:"nodes"`
	TTHits   int           `json:"ttHits" yaml:"ttHits"`
	TTProbes int           `json:"ttProbes" yaml:"ttProbes"`
	TTSize   int           `json:"ttSize" yaml:"ttSize"`
	Depth    int           `json:"depth" yaml:"depth"` // Deepest completed depth
	Aborted  bool          `json:"aborted" yaml:"aborted"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

type ttKey struct {
	hash  game.StateHash
	depth int
	max   bool
}

type binding struct {
	cfg, opp config.DifficultyConfig
}

// Context carries everything a search needs besides the position: the
// random source, the transposition table and the node and time budgets.
// The owner decides its lifetime; call Clear between games. A Context must
// not be used by two searches at once.
type Context struct {
	dice     game.Dice
	maxNodes int
	ttLimit  int
	useTT    bool
	tt       map[ttKey]float64
	bound    *binding

	nodes    int
	deadline time.Time
	aborted  bool
	hits     int
	probes   int
	stats    Stats
}

func NewContext(options ...ContextOption) *Context {
	c := &Context{ // Default values
		maxNodes: meta.MAX_NODES,
		ttLimit:  meta.TT_LIMIT,
		useTT:    true,
	}
	for _, option := range options {
		option(c)
	}
	if c.dice == nil {
		c.dice = game.NewDice()
	}
	c.tt = make(map[ttKey]float64)
	return c
}

// Clear empties the transposition table.
func (c *Context) Clear() {
	clear(c.tt)
	c.bound = nil
}

func (c *Context) Dice() game.Dice {
	return c.dice
}

// Stats returns the figures of the last completed Search call.
func (c *Context) Stats() Stats {
	return c.stats
}

func (c *Context) TTSize() int {
	return len(c.tt)
}

// bind drops cached values computed under a different configuration pair.
func (c *Context) bind(cfg, opp config.DifficultyConfig) {
	if c.bound != nil && c.bound.cfg == cfg && c.bound.opp == opp {
		return
	}
	clear(c.tt)
	c.bound = &binding{cfg: cfg, opp: opp}
}

func (c *Context) begin(deadline time.Time) {
	c.nodes = 0
	c.deadline = deadline
	c.aborted = false
	c.hits = 0
	c.probes = 0
}

func (c *Context) finish(started time.Time, depth int) Stats {
	c.stats = Stats{
		Nodes:    c.nodes,
		TTHits:   c.hits,
		TTProbes: c.probes,
		TTSize:   len(c.tt),
		Depth:    depth,
		Aborted:  c.aborted,
		Duration: time.Since(started),
	}
	return c.stats
}

// visit counts a node and reports whether the search may keep expanding.
// The clock is only read every meta.POLL_INTERVAL nodes.
func (c *Context) visit() bool {
	if c.aborted {
		return false
	}
	c.nodes++
	if c.nodes > c.maxNodes {
		c.aborted = true
		return false
	}
	if c.nodes%meta.POLL_INTERVAL == 0 && !c.deadline.IsZero() && time.Now().After(c.deadline) {
		c.aborted = true
		return false
	}
	return true
}

func (c *Context) lookup(key ttKey) (float64, bool) {
	if !c.useTT {
		return 0, false
	}
	c.probes++
	v, ok := c.tt[key]
	if ok {
		c.hits++
	}
	return v, ok
}

// store skips values from aborted subtrees, which are not exact.
func (c *Context) store(key ttKey, value float64) {
	if !c.useTT || c.aborted || len(c.tt) >= c.ttLimit {
		return
	}
	c.tt[key] = value
}

// child creates the private context of a nested opponent search: no
// table, the parent's deadline, and whatever node budget is left.
func (c *Context) child() *Context {
	return &Context{
		dice:     c.dice,
		maxNodes: max(1, c.maxNodes-c.nodes),
		deadline: c.deadline,
	}
}

// fold charges a finished child search to this context.
func (c *Context) fold(child *Context) {
	c.nodes += child.nodes
	if child.aborted || c.nodes > c.maxNodes {
		c.aborted = true
	}
}

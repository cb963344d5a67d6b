package metrics

import (
	"time"

	"knucklebones/game"
)

// SearchMetric is what an agent reports about one decision.
type SearchMetric struct {
	Agent        string        `yaml:"agent"`
	Reason       string        `yaml:"reason,omitempty"`
	Value        float64       `yaml:"value"`
	Nodes        int           `yaml:"nodes,omitempty"`
	Depth        int           `yaml:"depth,omitempty"`
	TTHits       int           `yaml:"ttHits,omitempty"`
	Episodes     int           `yaml:"episodes,omitempty"`
	FullPlayouts int           `yaml:"fullPlayouts,omitempty"`
	Aborted      bool          `yaml:"aborted,omitempty"`
	Duration     time.Duration `yaml:"duration"`
}

type MoveMetric struct {
	Step     int
	Player   int // 1 or 2
	Column   int
	Die      int
	Removed  int
	Fallback bool // The agent's answer was replaced by the first legal column
	SearchMetric
}

type GameMetric struct {
	StartingPlayer int    // 1 or 2
	Winner         string // game.Winner string
	Score1         int
	Score2         int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
	Truncated      bool // Stopped by the turn ceiling
}

// Collector gathers the moves of one game.
type Collector interface {
	Start(starting game.Player)
	AddMove(m MoveMetric)
	Complete(final game.GameState, truncated bool) (GameMetric, []MoveMetric)
}

type collector struct {
	starting  game.Player
	startTime time.Time
	moves     []MoveMetric
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start(starting game.Player) {
	c.starting = starting
	c.startTime = time.Now()
	c.moves = c.moves[:0]
}

func (c *collector) AddMove(m MoveMetric) {
	c.moves = append(c.moves, m)
}

func (c *collector) Complete(final game.GameState, truncated bool) (GameMetric, []MoveMetric) {
	end := time.Now()
	moves := make([]MoveMetric, len(c.moves))
	copy(moves, c.moves)
	return GameMetric{
		StartingPlayer: int(c.starting) + 1,
		Winner:         final.Winner().String(),
		Score1:         final.Score(game.Player1),
		Score2:         final.Score(game.Player2),
		StartTime:      c.startTime,
		EndTime:        end,
		Duration:       end.Sub(c.startTime),
		TotalMoves:     len(moves),
		Truncated:      truncated,
	}, moves
}

type dummyCollector struct{}

// NewDummyCollector discards per-move metrics but still reports the outcome.
func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (c *dummyCollector) Start(game.Player)  {}
func (c *dummyCollector) AddMove(MoveMetric) {}
func (c *dummyCollector) Complete(final game.GameState, truncated bool) (GameMetric, []MoveMetric) {
	return GameMetric{
		Winner:    final.Winner().String(),
		Score1:    final.Score(game.Player1),
		Score2:    final.Score(game.Player2),
		Truncated: truncated,
	}, nil
}

package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentConfig describes an entrant of an experiment.
type AgentConfig struct {
	ID           int     `yaml:"id"`
	Name         string  `yaml:"name"`
	Depth        int     `yaml:"depth"`
	Randomness   float64 `yaml:"randomness"`
	Adversarial  bool    `yaml:"adversarial"`
	TimeBudgetMs int     `yaml:"timeBudgetMs"`
	Adaptive     bool    `yaml:"adaptive"`
	Goroutines   int     `yaml:"goroutines,omitempty"`
}

type GameRecord struct {
	ID     int
	Agent1 int // AgentConfig.ID of the Player1 seat
	Agent2 int // AgentConfig.ID of the Player2 seat
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

type Writer struct {
	baseDir string
}

// NewWriter creates <root>/<name>/<timestamp> for the files of one run.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "name", "depth", "randomness", "adversarial", "time_budget_ms", "adaptive", "goroutines"}
	return w.writeCSV("agent_configs.csv", header, len(configs), func(i int) []string {
		config := configs[i]
		return []string{
			strconv.Itoa(config.ID),
			config.Name,
			strconv.Itoa(config.Depth),
			strconv.FormatFloat(config.Randomness, 'f', -1, 64),
			strconv.FormatBool(config.Adversarial),
			strconv.Itoa(config.TimeBudgetMs),
			strconv.FormatBool(config.Adaptive),
			strconv.Itoa(config.Goroutines),
		}
	})
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agent1", "agent2", "starting_player", "winner", "score1", "score2",
		"start_time", "end_time", "duration", "total_moves", "truncated"}
	return w.writeCSV("game_records.csv", header, len(records), func(i int) []string {
		record := records[i]
		return []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Agent1),
			strconv.Itoa(record.Agent2),
			strconv.Itoa(record.StartingPlayer),
			record.Winner,
			strconv.Itoa(record.Score1),
			strconv.Itoa(record.Score2),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
			strconv.FormatBool(record.Truncated),
		}
	})
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "agent", "column", "die", "removed", "fallback",
		"reason", "value", "nodes", "depth", "episodes", "full_playouts", "duration"}
	return w.writeCSV("move_records.csv", header, len(records), func(i int) []string {
		record := records[i]
		return []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			strconv.Itoa(record.Player),
			record.Agent,
			strconv.Itoa(record.Column),
			strconv.Itoa(record.Die),
			strconv.Itoa(record.Removed),
			strconv.FormatBool(record.Fallback),
			record.Reason,
			strconv.FormatFloat(record.Value, 'f', 4, 64),
			strconv.Itoa(record.Nodes),
			strconv.Itoa(record.Depth),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.FullPlayouts),
			record.Duration.String(),
		}
	})
}

// WriteSummary stores v as summary.yaml.
func (w *Writer) WriteSummary(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.baseDir, "summary.yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func (w *Writer) writeCSV(name string, header []string, rows int, row func(i int) []string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for i := 0; i < rows; i++ {
		if err := writer.Write(row(i)); err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

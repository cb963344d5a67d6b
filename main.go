package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"knucklebones/accel"
	"knucklebones/agent"
	"knucklebones/config"
	"knucklebones/experiments"
	"knucklebones/game"
	"knucklebones/montecarlo"
	"knucklebones/server"
	"knucklebones/utils"
	"knucklebones/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const usage = `usage: knucklebones <command> [flags]

commands:
  serve       serve the worker protocol and the accelerator endpoint
  match       play a batch of games between two agents
  tournament  play a round robin between agents
  analyze     rank the moves of a position by simulated win probability
  levels      print the difficulty levels
  throughput  measure MCTS episodes per second by goroutine count`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command, args := os.Args[1], os.Args[2:]; command {
	case "serve":
		err = serve(ctx, args)
	case "match":
		err = match(ctx, args)
	case "tournament":
		err = tournament(ctx, args)
	case "analyze":
		err = analyze(ctx, args)
	case "levels":
		err = listLevels(args)
	case "throughput":
		err = throughput(ctx, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", os.Args[1])
	}
}

// common registers the flags every command shares.
type common struct {
	verbose    *bool
	levelsPath *string
}

func newFlags(name string) (*flag.FlagSet, common) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, common{
		verbose:    fs.Bool("v", false, "Debug logging"),
		levelsPath: fs.String("levels", "", "YAML file overriding the built-in difficulty levels"),
	}
}

func (c common) setup() (config.Levels, error) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *c.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if *c.levelsPath == "" {
		return config.Default(), nil
	}
	return config.Load(*c.levelsPath)
}

func serve(ctx context.Context, args []string) error {
	fs, c := newFlags("serve")
	addr := fs.String("addr", ":8080", "Listen address")
	seed := fs.Uint64("seed", 0, "Seed the session dice (0 is unseeded)")
	fs.Parse(args)
	levels, err := c.setup()
	if err != nil {
		return err
	}

	options := []worker.Option{worker.WithLevels(levels)}
	if *seed != 0 {
		options = append(options, worker.WithDice(game.NewSeededDice(*seed)))
	}
	return server.New(worker.NewDispatcher(options...)).ListenAndServe(ctx, *addr)
}

type gameFlags struct {
	games     *int
	seed      *uint64
	out       *string
	accelURL  *string
	maxTurns  *int
	simulated *int
}

func newGameFlags(fs *flag.FlagSet) gameFlags {
	return gameFlags{
		games:     fs.Int("games", 20, "Games per matchup"),
		seed:      fs.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for dice and agents"),
		out:       fs.String("out", "", "Directory to write CSV records and a YAML summary to"),
		accelURL:  fs.String("accel", "", "Base URL of an accelerator for level agents"),
		maxTurns:  fs.Int("max-turns", 0, "Stop games after this many moves"),
		simulated: fs.Int("simulations", 200, "Playouts per move for the montecarlo agent"),
	}
}

func (g gameFlags) runner(ctx context.Context, levels config.Levels, names ...string) (*experiments.Runner, error) {
	factory := agent.NewFactory(levels)
	factory.MonteCarlo.Simulations = *g.simulated
	if *g.accelURL != "" {
		factory.Accelerator = accel.NewRemote(ctx, *g.accelURL)
	}
	known := factory.Names()
	for _, name := range names {
		if utils.FindIndex(known, name) < 0 {
			return nil, fmt.Errorf("unknown agent %q, choose from %v", name, known)
		}
	}

	r := experiments.NewRunner(factory)
	if *g.maxTurns > 0 {
		r.MaxTurns = *g.maxTurns
	}
	return r, nil
}

func match(ctx context.Context, args []string) error {
	fs, c := newFlags("match")
	p1 := fs.String("p1", "hard", "Agent seated as Player1")
	p2 := fs.String("p2", "medium", "Agent seated as Player2")
	alternate := fs.Bool("alternate", false, "Swap colors every other game")
	g := newGameFlags(fs)
	fs.Parse(args)
	levels, err := c.setup()
	if err != nil {
		return err
	}

	r, err := g.runner(ctx, levels, *p1, *p2)
	if err != nil {
		return err
	}
	r.Alternate = *alternate
	result, err := r.RunBatch(ctx, experiments.Matchup{Agent1: *p1, Agent2: *p2}, *g.games, *g.seed)
	if err != nil {
		return err
	}
	if err := printYAML(result); err != nil {
		return err
	}
	if *g.out == "" {
		return nil
	}
	dir, err := experiments.Save(*g.out, "match", r.AgentConfigs(*p1, *p2), result, result)
	if err != nil {
		return err
	}
	log.Info().Msgf("stored results in %s", dir)
	return nil
}

func tournament(ctx context.Context, args []string) error {
	fs, c := newFlags("tournament")
	entrants := fs.String("agents", "beginner,easy,medium,hard,greedy", "Comma separated entrants")
	g := newGameFlags(fs)
	fs.Parse(args)
	levels, err := c.setup()
	if err != nil {
		return err
	}

	names, err := utils.ParseList(*entrants, func(s string) (string, error) { return s, nil })
	if err != nil {
		return err
	}
	if len(names) < 2 {
		return fmt.Errorf("a tournament needs at least two agents")
	}
	r, err := g.runner(ctx, levels, names...)
	if err != nil {
		return err
	}
	t, err := r.RunTournament(ctx, names, *g.games, *g.seed)
	if err != nil {
		return err
	}
	if err := printYAML(t); err != nil {
		return err
	}
	if *g.out == "" {
		return nil
	}
	dir, err := experiments.Save(*g.out, "tournament", r.AgentConfigs(names...), t, t.Batches...)
	if err != nil {
		return err
	}
	log.Info().Msgf("stored results in %s", dir)
	return nil
}

func analyze(ctx context.Context, args []string) error {
	fs, c := newFlags("analyze")
	grid1 := fs.String("grid1", "", "Player1 cells, 9 comma separated values column by column, 0 for empty")
	grid2 := fs.String("grid2", "", "Player2 cells")
	player := fs.Int("player", 0, "Player to move, 0 or 1")
	die := fs.Int("die", 0, "Rolled die")
	simulations := fs.Int("simulations", montecarlo.DefaultConfig().Simulations, "Playouts per move")
	policy := fs.String("policy", string(montecarlo.DefaultConfig().Policy), "Playout policy: random, heuristic or mixed")
	seed := fs.Uint64("seed", 0, "Seed the playouts (0 is unseeded)")
	fs.Parse(args)
	if _, err := c.setup(); err != nil {
		return err
	}

	board := game.Board{Player: *player, Die: uint8(*die)}
	for _, cells := range []struct {
		flag string
		grid *[game.Slots]uint8
	}{{*grid1, &board.Grid1}, {*grid2, &board.Grid2}} {
		values, err := utils.ParseList(cells.flag, parseCell)
		if err != nil {
			return err
		}
		if len(values) > game.Slots {
			return fmt.Errorf("a grid has %d cells, got %d", game.Slots, len(values))
		}
		copy(cells.grid[:], values)
	}
	state, err := board.Decode()
	if err != nil {
		return err
	}

	cfg := montecarlo.DefaultConfig()
	cfg.Simulations = *simulations
	cfg.Policy = montecarlo.Policy(*policy)
	var dice game.Dice
	if *seed != 0 {
		dice = game.NewSeededDice(*seed)
	}
	ctx = log.Logger.WithContext(ctx)
	analyses, err := montecarlo.AnalyzeMoves(ctx, state, cfg, dice)
	if err != nil {
		return err
	}
	return printYAML(analyses)
}

func parseCell(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	return uint8(v), err
}

func listLevels(args []string) error {
	fs, c := newFlags("levels")
	fs.Parse(args)
	levels, err := c.setup()
	if err != nil {
		return err
	}
	data, err := levels.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func throughput(ctx context.Context, args []string) error {
	fs, c := newFlags("throughput")
	counts := fs.String("goroutines", "1,2,4,8,16", "Comma separated goroutine counts")
	duration := fs.Duration("duration", 50*time.Millisecond, "Search time per position")
	positions := fs.Int("positions", 20, "Sampled positions")
	seed := fs.Uint64("seed", 1, "Seed for the sampled positions")
	fs.Parse(args)
	if _, err := c.setup(); err != nil {
		return err
	}

	goroutines, err := utils.ParseList(*counts, strconv.Atoi)
	if err != nil {
		return err
	}
	results, err := experiments.RunThroughput(ctx, goroutines, *duration, *positions, *seed)
	if err != nil {
		return err
	}
	return printYAML(results)
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// Package automatic lets the engine play full games on its own, against the
// random tile spawner, and records how it did.
package automatic

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lithammer/shortuuid"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/domino14/mcts2048/board"
	"github.com/domino14/mcts2048/config"
	"github.com/domino14/mcts2048/game"
	"github.com/domino14/mcts2048/mcts"
)

// GameResult is the outcome of one automatic game.
type GameResult struct {
	GameID   string
	Turns    int
	MaxTile  int
	State    game.State
	Duration time.Duration
}

// CSVHeader names the columns of CSVRecord.
var CSVHeader = []string{"gameID", "turns", "maxtile", "result", "seconds"}

func (r GameResult) CSVRecord() []string {
	return []string{
		r.GameID,
		strconv.Itoa(r.Turns),
		strconv.Itoa(r.MaxTile),
		r.State.String(),
		strconv.FormatFloat(r.Duration.Seconds(), 'f', 3, 64),
	}
}

// GameRunner is the master struct here for the automatic game logic.
type GameRunner struct {
	game   *game.Game
	solver *mcts.Solver
	rng    *frand.RNG
	gameID string

	config *config.Config
	// gamechan receives the final board of every game, if set.
	gamechan chan string
	// maxTurns stops a game early; 0 means play to the end.
	maxTurns int
}

// NewGameRunner just instantiates and initializes a game runner.
func NewGameRunner(cfg *config.Config) *GameRunner {
	r := &GameRunner{
		config: cfg,
		solver: mcts.NewSolver(cfg),
		rng:    frand.New(),
	}
	r.Init()
	return r
}

// Init starts a fresh game.
func (r *GameRunner) Init() {
	r.game = game.NewGame(r.rng)
	r.gameID = shortuuid.New()
}

func (r *GameRunner) Game() *game.Game {
	return r.game
}

func (r *GameRunner) Solver() *mcts.Solver {
	return r.solver
}

func (r *GameRunner) SetMaxTurns(n int) {
	r.maxTurns = n
}

// PlayEngineTurn asks the engine for a move, plays it and lets the spawner
// answer.
func (r *GameRunner) PlayEngineTurn(ctx context.Context) (board.Direction, error) {
	a, err := r.solver.Search(ctx, r.game)
	if err != nil {
		return 0, err
	}
	d := a.Direction()
	if !r.game.PlayTurn(d, r.rng) {
		return 0, fmt.Errorf("engine chose illegal move %v", d)
	}
	return d, nil
}

// PlayFullGame plays the current game until it ends, the turn limit is
// hit or ctx is done.
func (r *GameRunner) PlayFullGame(ctx context.Context) (GameResult, error) {
	logger := zerolog.Ctx(ctx)
	tstart := time.Now()
	for !r.game.IsGameFinish() {
		if r.maxTurns > 0 && r.game.Turn() >= r.maxTurns {
			break
		}
		if ctx.Err() != nil {
			return r.result(tstart), ctx.Err()
		}
		if _, err := r.PlayEngineTurn(ctx); err != nil {
			return r.result(tstart), err
		}
	}
	res := r.result(tstart)
	logger.Debug().Str("gameID", res.GameID).Int("turns", res.Turns).
		Int("maxTile", res.MaxTile).Str("result", res.State.String()).
		Msg("game-over")
	if r.gamechan != nil {
		r.gamechan <- r.game.ToDisplayText()
	}
	return res, nil
}

func (r *GameRunner) result(tstart time.Time) GameResult {
	return GameResult{
		GameID:   r.gameID,
		Turns:    r.game.Turn(),
		MaxTile:  1 << r.game.Board().MaxValue(),
		State:    r.game.State(),
		Duration: time.Since(tstart),
	}
}

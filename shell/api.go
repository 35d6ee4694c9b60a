package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/mcts2048/automatic"
	"github.com/domino14/mcts2048/board"
	"github.com/domino14/mcts2048/config"
	"github.com/domino14/mcts2048/game"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) searchContext() context.Context {
	return log.Logger.WithContext(context.Background())
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.game = game.NewGame(sc.rng)
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) move(cmd *shellcmd) (*Response, error) {
	d, err := board.ParseDirection(cmd.cmd)
	if err != nil {
		return nil, err
	}
	if sc.game.IsGameFinish() {
		return nil, errors.New("the game is over; start a new one with `new`")
	}
	if !sc.game.PlayTurn(d, sc.rng) {
		return nil, fmt.Errorf("cannot move %v", d)
	}
	return msg(sc.game.ToDisplayText()), nil
}

// aiplay lets the engine choose a move and plays it.
func (sc *ShellController) aiplay(cmd *shellcmd) (*Response, error) {
	a, err := sc.solver.Search(sc.searchContext(), sc.game)
	if err != nil {
		return nil, err
	}
	sc.game.PlayTurn(a.Direction(), sc.rng)
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) hint(cmd *shellcmd) (*Response, error) {
	a, err := sc.solver.Search(sc.searchContext(), sc.game)
	if err != nil {
		return nil, err
	}
	st := sc.solver.LastStats()
	return msg(fmt.Sprintf("Best move: %v (win %.2f%%, %d iterations in %v)",
		a.Direction(), st.WinRate*100, st.Iterations, st.Elapsed)), nil
}

// autoplay lets the engine play the current game, optionally for at most
// the given number of turns.
func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	maxTurns := 0
	if len(cmd.args) > 0 {
		var err error
		maxTurns, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	ctx := sc.searchContext()
	played := 0
	for !sc.game.IsGameFinish() && (maxTurns == 0 || played < maxTurns) {
		a, err := sc.solver.Search(ctx, sc.game)
		if err != nil {
			return nil, err
		}
		sc.game.PlayTurn(a.Direction(), sc.rng)
		played++
		log.Debug().Int("turn", sc.game.Turn()).Str("move", a.Direction().String()).
			Msg("autoplay-move")
	}
	return msg(sc.game.ToDisplayText()), nil
}

// autogames plays full games in the background. `autogames stop` ends
// them early and `autogames analyze` summarizes the results log.
func (sc *ShellController) autogames(cmd *shellcmd) (*Response, error) {
	logfile := sc.config.GetString(config.ConfigAutoplayLog)
	if f, ok := cmd.options["file"]; ok {
		logfile = f
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("autogames needs a number of games, `stop` or `analyze`")
	}
	switch cmd.args[0] {
	case "stop":
		if automatic.IsPlaying.Value() == 0 || sc.autogamesCancel == nil {
			return nil, errors.New("no games are being played")
		}
		sc.autogamesCancel()
		return msg("stopping games"), nil
	case "analyze":
		return sc.analyze(logfile)
	}

	numGames, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	threads := 1
	if t, ok := cmd.options["threads"]; ok {
		threads, err = strconv.Atoi(t)
		if err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithCancel(sc.searchContext())
	err = automatic.StartCompVsCompGames(ctx, sc.config, numGames, threads, logfile)
	if err != nil {
		cancel()
		return nil, err
	}
	sc.autogamesCancel = cancel
	return msg(fmt.Sprintf("playing %d games, results go to %v", numGames, logfile)), nil
}

func (sc *ShellController) analyze(logfile string) (*Response, error) {
	summary, err := automatic.AnalyzeLogFile(logfile)
	if err != nil {
		return nil, err
	}
	return msg(summary), nil
}

// set loads a position given as 16 exponents, row by row.
func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	fields := cmd.args
	if len(fields) == 1 {
		fields = strings.FieldsFunc(fields[0], func(r rune) bool { return r == ',' || r == '/' })
	}
	if len(fields) != board.NumCells {
		return nil, fmt.Errorf("need %d exponents, got %d", board.NumCells, len(fields))
	}
	var grids [board.NumCells]uint8
	for i, f := range fields {
		e, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		if e < 0 || e > 15 {
			return nil, fmt.Errorf("exponent %d out of range", e)
		}
		grids[i] = uint8(e)
	}
	sc.game.SetDebugBoard(grids)
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) threads(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(fmt.Sprintf("search threads: %d", sc.solver.Threads())), nil
	}
	t, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.solver.SetThreads(t)
	return msg(fmt.Sprintf("search threads: %d", sc.solver.Threads())), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}

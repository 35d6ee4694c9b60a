package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/mcts2048/config"
	"github.com/domino14/mcts2048/game"
	"github.com/domino14/mcts2048/mcts"
)

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("wrong format for option")
	errQuit              = errors.New("sending quit signal")
)

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

type ShellController struct {
	l      *readline.Instance
	config *config.Config

	game   *game.Game
	solver *mcts.Solver
	rng    *frand.RNG

	searchLogFile *os.File

	autogamesCancel context.CancelFunc
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// newController builds a controller with a fresh game and no terminal.
func newController(cfg *config.Config) *ShellController {
	sc := &ShellController{
		config: cfg,
		solver: mcts.NewSolver(cfg),
		rng:    frand.New(),
	}
	sc.game = game.NewGame(sc.rng)
	return sc
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := newController(cfg)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[33m2048>\033[0m ",
		HistoryFile:     "/tmp/mcts2048_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l

	if path := cfg.GetString(config.ConfigSearchLog); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Err(err).Str("path", path).Msg("could not open search log")
		} else {
			sc.searchLogFile = f
			sc.solver.SetLogStream(f)
		}
	}
	return sc
}

// extractFields splits a line into a command, its positional arguments
// and its -option value pairs.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}

	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[i][1:]] = fields[i+1]
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "new":
		return sc.newGame(cmd)
	case "w", "a", "s", "d", "up", "left", "right", "down":
		return sc.move(cmd)
	case "ai":
		return sc.aiplay(cmd)
	case "hint":
		return sc.hint(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "autogames":
		return sc.autogames(cmd)
	case "set":
		return sc.set(cmd)
	case "show":
		return sc.show(cmd)
	case "threads":
		return sc.threads(cmd)
	case "help":
		return sc.help(cmd)
	case "exit", "bye":
		return nil, errQuit
	}
	return nil, fmt.Errorf("command %v not found", strconv.Quote(cmd.cmd))
}

// Execute runs a single command line.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	cmd, err := extractFields(line)
	if errors.Is(err, errNoData) {
		return
	}
	if err != nil {
		sc.showError(err)
		return
	}
	resp, err := sc.dispatch(cmd)
	if errors.Is(err, errQuit) {
		sig <- syscall.SIGINT
		return
	}
	if err != nil {
		sc.showError(err)
		return
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	sc.showMessage(sc.game.ToDisplayText())
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" || line == "bye" {
			sig <- syscall.SIGINT
			break
		}
		sc.Execute(sig, line)
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops background work and closes open files.
func (sc *ShellController) Cleanup() {
	if sc.autogamesCancel != nil {
		sc.autogamesCancel()
	}
	if sc.searchLogFile != nil {
		sc.searchLogFile.Close()
	}
}

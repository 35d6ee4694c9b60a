package shell

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/domino14/mcts2048/board"
	"github.com/domino14/mcts2048/config"
	"github.com/domino14/mcts2048/game"
)

func testController() *ShellController {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigThreads, 2)
	cfg.Set(config.ConfigSearchTimeMin, 5*time.Millisecond)
	cfg.Set(config.ConfigSearchTimeMax, 10*time.Millisecond)
	return newController(cfg)
}

func run(t *testing.T, sc *ShellController, line string) (*Response, error) {
	t.Helper()
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	return sc.dispatch(cmd)
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autogames 10 -file /path/to/log.csv",
			&shellcmd{"autogames", []string{"10"}, map[string]string{"file": "/path/to/log.csv"}},
			nil},
		{"autogames stop",
			&shellcmd{"autogames", []string{"stop"}, map[string]string{}},
			nil},
		{"set 1 2 3 -x 'a b'",
			&shellcmd{"set", []string{"1", "2", "3"}, map[string]string{"x": "a b"}},
			nil},
		{"autogames 10 -threads",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestMoveCommand(t *testing.T) {
	is := is.New(t)
	sc := testController()
	_, err := run(t, sc, "set 1 2 0 0 0 0 0 0 0 0 0 0 0 0 0 0")
	is.NoErr(err)
	turn := sc.game.Turn()

	_, err = run(t, sc, "a")
	is.True(err != nil) // nothing moves left

	resp, err := run(t, sc, "d")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "last move: right"))
	is.Equal(sc.game.Turn(), turn+2)
	is.Equal(sc.game.Board().Grid(3), uint8(2))
}

func TestSetCommand(t *testing.T) {
	is := is.New(t)
	sc := testController()
	_, err := run(t, sc, "set 1,7,10,9/4,5,6,1/1,3,2,5/0,3,1,3")
	is.NoErr(err)
	is.Equal(sc.game.Board().Grids(), board.Sample(board.LateGame))

	_, err = run(t, sc, "set 1 2 3")
	is.True(err != nil)
	_, err = run(t, sc, "set 1,7,10,9/4,5,6,1/1,3,2,5/0,3,1,16")
	is.True(err != nil)
}

func TestAICommands(t *testing.T) {
	is := is.New(t)
	sc := testController()

	resp, err := run(t, sc, "hint")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "Best move: "))
	is.Equal(sc.game.Turn(), 1)

	_, err = run(t, sc, "ai")
	is.NoErr(err)
	is.Equal(sc.game.Turn(), 3)

	_, err = run(t, sc, "autoplay 3")
	is.NoErr(err)
	is.Equal(sc.game.Turn(), 9)

	sc.game.SetDebugBoard(board.Sample(board.Stuck))
	_, err = run(t, sc, "ai")
	is.True(err != nil)
	is.Equal(sc.game.State(), game.Lose)
}

func TestAutogames(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sc.config.Set(config.ConfigAutoplayMaxTurns, 11)
	path := filepath.Join(t.TempDir(), "games.csv")

	_, err := run(t, sc, "autogames")
	is.True(err != nil)
	_, err = run(t, sc, "autogames analyze -file "+path)
	is.True(err != nil) // no file yet

	resp, err := run(t, sc, "autogames 2 -file "+path)
	is.NoErr(err)
	is.True(strings.Contains(resp.message, path))

	var summary *Response
	for i := 0; i < 200; i++ {
		time.Sleep(50 * time.Millisecond)
		summary, err = run(t, sc, "autogames analyze -file "+path)
		if err == nil && strings.Contains(summary.message, "Games played: 2") {
			break
		}
	}
	is.NoErr(err)
	is.True(strings.Contains(summary.message, "Games played: 2"))
	sc.Cleanup()
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc := testController()
	resp, err := run(t, sc, "help")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "autoplay"))
	resp, err = run(t, sc, "help set")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "exponents"))
	_, err = run(t, sc, "help nothing")
	is.True(err != nil)
	_, err = run(t, sc, "frobnicate")
	is.True(err != nil)
	_, err = run(t, sc, "exit")
	is.Equal(err, errQuit)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	c := NewShellCompleter(testController())
	matches, n := c.Do([]rune("auto"), 4)
	is.Equal(n, 4)
	is.Equal(matches, [][]rune{[]rune("play"), []rune("games")})

	matches, n = c.Do([]rune("autogames -t"), 12)
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("hreads")})
}

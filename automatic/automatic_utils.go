package automatic

// Data collection for automatic games.

import (
	"context"
	"encoding/csv"
	"errors"
	"expvar"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/mcts2048/config"
)

var (
	GamesCounter *expvar.Int
	IsPlaying    *expvar.Int
)

func init() {
	GamesCounter = expvar.NewInt("autoplayGames")
	IsPlaying = expvar.NewInt("autoplayIsPlaying")
}

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

// startMu makes the IsPlaying check and claim in StartCompVsCompGames
// atomic.
var startMu sync.Mutex

type Job struct{}

// PlayGames plays numGames engine games, at most threads of them at once,
// and writes one CSV line per finished game to w. The search workers are
// split between the concurrent games.
func PlayGames(ctx context.Context, cfg *config.Config, numGames, threads int, w io.Writer) error {
	threads = max(1, min(threads, numGames))
	searchThreads := max(1, cfg.GetInt(config.ConfigThreads)/threads)
	log.Debug().Msgf("Starting %v games, %v at a time, %v search threads each",
		numGames, threads, searchThreads)

	jobs := make(chan Job, 100)
	results := make(chan GameResult, 100)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < threads; i++ {
		g.Go(func() error {
			r := NewGameRunner(cfg)
			r.Solver().SetThreads(searchThreads)
			r.SetMaxTurns(cfg.GetInt(config.ConfigAutoplayMaxTurns))
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for range jobs {
				r.Init()
				res, err := r.PlayFullGame(gctx)
				if err != nil {
					return err
				}
				GamesCounter.Add(1)
				results <- res
			}
			return nil
		})
	}

	go func() {
	gameLoop:
		for i := 1; i < numGames+1; i++ {
			select {
			case jobs <- Job{}:
			case <-gctx.Done():
				log.Info().Msg("Got stop signal, exiting soon...")
				break gameLoop
			}
			if i%100 == 0 {
				log.Info().Msgf("Queued %v jobs", i)
			}
		}
		close(jobs)
		log.Debug().Msg("Finished queueing all jobs.")
	}()

	var werr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		cw := csv.NewWriter(w)
		werr = cw.Write(CSVHeader)
		for res := range results {
			if werr == nil {
				werr = cw.Write(res.CSVRecord())
				cw.Flush()
				werr = errors.Join(werr, cw.Error())
			}
		}
		cw.Flush()
		werr = errors.Join(werr, cw.Error())
	}()

	err := g.Wait()
	close(results)
	<-done
	log.Info().Msg("All games finished.")
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return errors.Join(err, werr)
}

// StartCompVsCompGames plays games in the background, writing results to
// outputFilename. It returns once the games are started.
func StartCompVsCompGames(ctx context.Context, cfg *config.Config, numGames, threads int,
	outputFilename string) error {

	startMu.Lock()
	if IsPlaying.Value() > 0 {
		startMu.Unlock()
		return ErrAlreadyPlaying
	}
	// Claimed before returning; the workers only add to it later.
	IsPlaying.Add(1)
	startMu.Unlock()

	logfile, err := os.Create(outputFilename)
	if err != nil {
		IsPlaying.Add(-1)
		return err
	}
	GamesCounter.Set(0)
	go func() {
		defer IsPlaying.Add(-1)
		defer logfile.Close()
		if err := PlayGames(ctx, cfg, numGames, threads, logfile); err != nil {
			log.Err(err).Msg("autoplay")
			return
		}
		log.Info().Str("output", outputFilename).Msg("autoplay-finished")
	}()
	return nil
}

package automatic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/domino14/mcts2048/game"
	"github.com/domino14/mcts2048/stats"
)

// AnalyzeLogFile analyzes the given game CSV file and spits out a bunch of
// statistics.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return AnalyzeLog(file)
}

// AnalyzeLog summarizes a game CSV stream as written by PlayGames.
func AnalyzeLog(in io.Reader) (string, error) {
	r := csv.NewReader(in)

	// Record looks like:
	// gameID,turns,maxtile,result,seconds

	turnStats := &stats.Statistic{}
	timeStats := &stats.Statistic{}
	maxTiles := map[int]int{}
	wins := 0
	gamesPlayed := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == CSVHeader[0] {
			// this is the header line
			continue
		}
		turns, err := strconv.Atoi(record[1])
		if err != nil {
			return "", err
		}
		maxTile, err := strconv.Atoi(record[2])
		if err != nil {
			return "", err
		}
		secs, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return "", err
		}
		turnStats.Push(float64(turns))
		timeStats.Push(secs)
		maxTiles[maxTile]++
		if record[3] == game.Win.String() {
			wins++
		}
		gamesPlayed++
	}
	if gamesPlayed == 0 {
		return "", errors.New("no games in log")
	}

	// build stats string
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\n", gamesPlayed)
	fmt.Fprintf(&sb, "Wins: %d (%.3f%%)\n", wins, 100.0*float64(wins)/float64(gamesPlayed))
	fmt.Fprintf(&sb, "Mean turns: %.2f  Stdev: %.2f\n", turnStats.Mean(), turnStats.Stdev())
	fmt.Fprintf(&sb, "Mean seconds per game: %.3f\n", timeStats.Mean())

	tiles := make([]int, 0, len(maxTiles))
	for t := range maxTiles {
		tiles = append(tiles, t)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tiles)))
	for _, t := range tiles {
		fmt.Fprintf(&sb, "Max tile %5d: %d (%.3f%%)\n", t, maxTiles[t],
			100.0*float64(maxTiles[t])/float64(gamesPlayed))
	}
	return sb.String(), nil
}

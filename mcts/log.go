package mcts

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/domino14/mcts2048/game"
)

const (
	logChildrenPerNode = 4
	logMaxDepth        = 6
)

// SearchLog is one search, as written to the log stream.
type SearchLog struct {
	Turn       int       `yaml:"turn"`
	Board      string    `yaml:"board"`
	Iterations int       `yaml:"iterations"`
	Elapsed    string    `yaml:"elapsed"`
	Moves      []LogNode `yaml:"moves"`
}

// LogNode is a tree node in a SearchLog. Only the most visited children
// of each node are kept.
type LogNode struct {
	Move     string    `yaml:"move"`
	Visit    int       `yaml:"visit"`
	Value    float64   `yaml:"value"`
	RawScore float64   `yaml:"raw_score"`
	Score    float64   `yaml:"score"`
	Children []LogNode `yaml:"children,omitempty"`
}

func (s *Solver) logChildren(idx nodeIndex, depth int) []LogNode {
	if depth >= logMaxDepth {
		return nil
	}
	n := &s.arena.nodes[idx]
	children := append([]nodeIndex(nil), n.children...)
	sort.Slice(children, func(i, j int) bool {
		return s.arena.nodes[children[i]].visit > s.arena.nodes[children[j]].visit
	})
	if len(children) > logChildrenPerNode {
		children = children[:logChildrenPerNode]
	}
	parentFactor := 0.0
	if n.visit > 0 {
		parentFactor = s.params.ExplorationConstant * sqrtLog(n.visit)
	}
	out := make([]LogNode, 0, len(children))
	for _, c := range children {
		cn := &s.arena.nodes[c]
		raw := 0.0
		if cn.visit > 0 {
			raw = cn.value / float64(cn.visit)
		}
		out = append(out, LogNode{
			Move:     game.ActionString(cn.mover, cn.action),
			Visit:    cn.visit,
			Value:    cn.value,
			RawScore: raw,
			Score:    cn.score(parentFactor),
			Children: s.logChildren(c, depth+1),
		})
	}
	return out
}

func (s *Solver) writeSearchLog(root nodeIndex, g *game.Game) error {
	rn := &s.arena.nodes[root]
	entry := SearchLog{
		Turn:       g.Turn(),
		Board:      g.Board().String(),
		Iterations: rn.visit,
		Elapsed:    s.lastStats.Elapsed.String(),
		Moves:      s.logChildren(root, 0),
	}
	out, err := yaml.Marshal([]SearchLog{entry})
	if err != nil {
		return err
	}
	_, err = s.logStream.Write(out)
	return err
}

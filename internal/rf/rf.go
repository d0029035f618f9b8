// Package rf implements the random-forest ensemble that maps the
// per-second audio/video MOS tracks and stalling statistics to the RF
// score Pq blends into O46 (spec.md §4.6).
//
// Each tree is stored as a flat CSV matrix of
// [node_id, feature_id, threshold, left_child, right_child] rows;
// feature_id == -1 marks a leaf whose threshold column holds the leaf
// value. Evaluating a tree is an iterative walk from node 0.
package rf

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/qualitylab/p1203go/internal/numeric"
	"github.com/qualitylab/p1203go/internal/perror"
)

// Node is one row of a decision tree.
type Node struct {
	FeatureID int
	Threshold float64
	Left      int
	Right     int
}

// Tree is a flat, array-indexed decision tree; Node 0 is the root.
type Tree []Node

// LoadTree parses one tree*.csv file.
func LoadTree(path string) (Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perror.Wrap(perror.KindSchema, err, "opening tree file %s", path)
	}
	defer f.Close()

	var nodes []Node
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 5 {
			return nil, perror.New(perror.KindSchema, "malformed tree row in %s: %q", path, line)
		}
		featureID, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, perror.Wrap(perror.KindSchema, err, "parsing feature id in %s", path)
		}
		threshold, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, perror.Wrap(perror.KindSchema, err, "parsing threshold in %s", path)
		}
		left, err := strconv.Atoi(strings.TrimSpace(fields[3]))
		if err != nil {
			return nil, perror.Wrap(perror.KindSchema, err, "parsing left child in %s", path)
		}
		right, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil {
			return nil, perror.Wrap(perror.KindSchema, err, "parsing right child in %s", path)
		}
		nodes = append(nodes, Node{FeatureID: featureID, Threshold: threshold, Left: left, Right: right})
	}
	if err := scanner.Err(); err != nil {
		return nil, perror.Wrap(perror.KindSchema, err, "reading tree file %s", path)
	}
	if len(nodes) == 0 {
		return nil, perror.New(perror.KindSchema, "tree file %s has no nodes", path)
	}
	return nodes, nil
}

// Execute walks t from the root using features, returning the leaf value.
func (t Tree) Execute(features []float64) float64 {
	nodeID := 0
	for {
		node := t[nodeID]
		if node.FeatureID == -1 {
			return node.Threshold
		}
		if features[node.FeatureID] < node.Threshold {
			nodeID = node.Left
		} else {
			nodeID = node.Right
		}
	}
}

// Ensemble is the full set of trees loaded from one directory, evaluated
// by averaging every tree's leaf value.
type Ensemble struct {
	Trees []Tree
}

// LoadEnsemble loads every tree*.csv file in dir, sorted by filename for
// deterministic averaging order.
func LoadEnsemble(dir string) (*Ensemble, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perror.Wrap(perror.KindSchema, err, "reading tree directory %s", dir)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "tree") && strings.HasSuffix(name, ".csv") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, perror.New(perror.KindSchema, "no tree*.csv files found in %s", dir)
	}

	trees := make([]Tree, 0, len(names))
	for _, name := range names {
		tree, err := LoadTree(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	return &Ensemble{Trees: trees}, nil
}

// Execute runs every tree in the ensemble and returns the mean leaf value.
func (e *Ensemble) Execute(features []float64) float64 {
	var sum float64
	for _, t := range e.Trees {
		sum += t.Execute(features)
	}
	return sum / float64(len(e.Trees))
}

// ScaleMoses resamples a per-second MOS track into numSplits equal-length
// segments, each the time-weighted average MOS over its span — the
// piecewise-constant-to-piecewise-average resampling used to build the
// RF model's video/audio trend features.
func ScaleMoses(secMOS []float64, numSplits int) []float64 {
	var samples []float64
	totalDuration := len(secMOS)
	splitDuration := float64(totalDuration) / float64(numSplits)
	var previousMOS, previousTime float64

	for i := 0; i < totalDuration; i++ {
		if previousTime+1 >= splitDuration {
			mos := (previousTime*previousMOS + (splitDuration-previousTime)*secMOS[i]) / splitDuration
			samples = append(samples, mos)
			previousMOS = secMOS[i]
			previousTime = previousTime + 1 - splitDuration
		} else {
			previousMOS = (previousMOS*previousTime + secMOS[i]*1) / (previousTime + 1)
			previousTime++
		}
	}

	for len(samples) < numSplits {
		samples = append(samples, previousMOS)
	}
	return samples
}

// RebufStats summarizes the stalling events into the five features the RF
// model uses: count, total length, count/duration, length/duration, and
// time since the last event.
type RebufStats struct {
	NumRebuf          float64
	LenRebuf          float64
	NumRebufPerLength float64
	LenRebufPerLength float64
	TimeOfLastRebuf   float64
}

// GetRebufStats computes RebufStats from parallel position/length buffers.
func GetRebufStats(pBuff, lBuff []float64, duration float64) RebufStats {
	if len(pBuff) == 0 || (len(pBuff) == 1 && pBuff[0] == 0) {
		return RebufStats{TimeOfLastRebuf: duration}
	}

	var lastPosition float64
	var numRebuf, lenRebuf float64
	for i, p := range pBuff {
		if p != 0 {
			numRebuf++
			lenRebuf += lBuff[i]
			lastPosition = p
		}
	}

	return RebufStats{
		NumRebuf:          numRebuf,
		LenRebuf:          lenRebuf,
		NumRebufPerLength: numRebuf / duration,
		LenRebufPerLength: lenRebuf / duration,
		TimeOfLastRebuf:   duration - lastPosition,
	}
}

// Calculate assembles the 14-feature vector and runs it through ensemble,
// returning the RF score (the ensemble mean).
func Calculate(ensemble *Ensemble, o21, o22, pBuff, lBuff []float64, duration float64) float64 {
	var initialBufferingLength float64
	if len(pBuff) > 0 && len(lBuff) > 0 && pBuff[0] == 0 {
		initialBufferingLength = lBuff[0]
	}

	stats := GetRebufStats(pBuff, lBuff, duration)
	stats.LenRebuf = initialBufferingLength/3.0 + stats.LenRebuf
	stats.LenRebufPerLength = initialBufferingLength/duration/3.0 + stats.LenRebufPerLength

	o21Rounded := roundAll(o21, 3)
	o22Rounded := roundAll(o22, 3)

	videoTrend := ScaleMoses(o22Rounded, 3)
	audioTrend := ScaleMoses(o21Rounded, 2)
	percentiles := []float64{
		numeric.Percentile(o22Rounded, 1),
		numeric.Percentile(o22Rounded, 5),
		numeric.Percentile(o22Rounded, 10),
	}

	features := make([]float64, 0, 14)
	features = append(features,
		stats.NumRebuf, stats.LenRebuf, stats.NumRebufPerLength, stats.LenRebufPerLength, stats.TimeOfLastRebuf)
	features = append(features, videoTrend...)
	features = append(features, percentiles...)
	features = append(features, audioTrend...)
	features = append(features, duration)

	return ensemble.Execute(features)
}

func roundAll(xs []float64, decimals int) []float64 {
	mult := 1.0
	for i := 0; i < decimals; i++ {
		mult *= 10
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Round(x*mult) / mult
	}
	return out
}

package ising

import (
	"math"
	"sort"
)

// PartitionReport is one decoded partition with its sampling statistics.
type PartitionReport struct {
	Bitstring string    `json:"bitstring"`
	Spins     []int8    `json:"spins"`
	SubsetA   []float64 `json:"subset_a"`
	SubsetB   []float64 `json:"subset_b"`
	SumDiff   float64   `json:"sum_diff"`
	Cost      float64   `json:"cost"`
	Count     int       `json:"count"`
	Frequency float64   `json:"frequency"`
}

// Statistics holds the decoded outcome of a sampling round. Entries are
// ordered by cost ascending, then count descending, then bitstring, so the
// ranking is deterministic for equal inputs.
type Statistics struct {
	Shots   int
	entries []PartitionReport
}

// Aggregate classifies every counted outcome into a partition and tallies
// it. The counts map comes straight from the sampling oracle (basis index
// to occurrences), so each distinct partition's cost is computed exactly
// once no matter how many shots produced it.
func Aggregate(p *Problem, counts map[uint64]int) *Statistics {
	shots := 0
	entries := make([]PartitionReport, 0, len(counts))
	for state, count := range counts {
		pt := PartitionFromBasisState(state, p.Size())
		a, b := p.Split(pt)
		d := p.SumDifference(pt)
		entries = append(entries, PartitionReport{
			Bitstring: pt.Bitstring(),
			Spins:     pt.Spins,
			SubsetA:   a,
			SubsetB:   b,
			SumDiff:   d,
			Cost:      d * d,
			Count:     count,
		})
		shots += count
	}
	for i := range entries {
		entries[i].Frequency = float64(entries[i].Count) / float64(shots)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Cost != entries[j].Cost {
			return entries[i].Cost < entries[j].Cost
		}
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Bitstring < entries[j].Bitstring
	})
	return &Statistics{Shots: shots, entries: entries}
}

// MinCost returns the lowest cost observed, or +Inf when nothing was.
func (s *Statistics) MinCost() float64 {
	if len(s.entries) == 0 {
		return math.Inf(1)
	}
	return s.entries[0].Cost
}

// Minima returns every partition achieving the minimum observed cost,
// mirror partitions included.
func (s *Statistics) Minima() []PartitionReport {
	min := s.MinCost()
	out := []PartitionReport{}
	for _, e := range s.entries {
		if e.Cost != min {
			break
		}
		out = append(out, e)
	}
	return out
}

// Ranked returns the top k partitions. k <= 0 returns the full ranking.
func (s *Statistics) Ranked(k int) []PartitionReport {
	if k <= 0 || k > len(s.entries) {
		k = len(s.entries)
	}
	return append([]PartitionReport(nil), s.entries[:k]...)
}

// Distinct returns the number of distinct partitions observed.
func (s *Statistics) Distinct() int { return len(s.entries) }

package picker

import (
	"crypto/rand"
	"math/big"
)

// weightedRandomFloat draws a uniform float64 in [0, total) using a
// cryptographically sound source; request bodies are attacker-influenced
// input so the picker's randomness should not be guessable from a
// math/rand seed.
func weightedRandomFloat(total float64) float64 {
	const resolution = 1 << 53
	n, err := rand.Int(rand.Reader, big.NewInt(resolution))
	if err != nil {
		return 0
	}
	return total * float64(n.Int64()) / float64(resolution)
}

func totalWeight(candidates []Candidate) float64 {
	var total float64
	for _, c := range candidates {
		total += c.EffectiveWeight
	}
	return total
}

// pickRandom performs weighted random selection with weight =
// EffectiveWeight. If every candidate's weight is 0 (the only-candidate
// fallback case), it falls back to a uniform pick.
func pickRandom(candidates []Candidate) Candidate {
	total := totalWeight(candidates)
	if total <= 0 {
		return candidates[0]
	}
	target := weightedRandomFloat(total)
	var cumulative float64
	for _, c := range candidates {
		cumulative += c.EffectiveWeight
		if target < cumulative {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

// pickLeastConn picks the candidate with minimum InFlight, breaking ties by
// weighted random among the tied set.
func pickLeastConn(candidates []Candidate) Candidate {
	min := candidates[0].InFlight
	for _, c := range candidates[1:] {
		if c.InFlight < min {
			min = c.InFlight
		}
	}
	var tied []Candidate
	for _, c := range candidates {
		if c.InFlight == min {
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	return pickRandom(tied)
}

// pickRoundRobin implements Nginx-style smooth weighted round-robin: each
// candidate's accumulator gains its effective weight, the candidate with
// the largest accumulator wins, and the winner's accumulator is reduced by
// the sum of all candidates' weights. The accumulator is kept per
// (group, endpoint) in the Health Table and persists across requests; the
// per-group mutex here serializes the read-increment-compare-subtract
// sequence so concurrent picks in the same group interleave deterministically.
func (p *Picker) pickRoundRobin(group string, candidates []Candidate) Candidate {
	mu := p.mutexFor(group)
	mu.Lock()
	defer mu.Unlock()

	total := totalWeight(candidates)

	var winner Candidate
	winnerIdx := -1
	best := 0.0
	currents := make([]float64, len(candidates))

	for i, c := range candidates {
		var cur float64
		p.health.WithCurrent(c.Endpoint.ModelName, c.ConfiguredWeight, func(current *float64, weight float64) {
			*current += c.EffectiveWeight
			cur = *current
		})
		currents[i] = cur
		if winnerIdx == -1 || cur > best {
			best = cur
			winnerIdx = i
			winner = c
		}
	}

	p.health.WithCurrent(winner.Endpoint.ModelName, winner.ConfiguredWeight, func(current *float64, weight float64) {
		*current -= total
	})

	return winner
}

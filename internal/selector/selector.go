// Package selector implements the candidate selector (C4, spec.md §4.4): a
// genetic algorithm seeds a simulated-annealing refinement, which in turn
// seeds an ant-colony search. Each stage consumes the previous stage's best
// result. Grounded on the GA/SA structure of a route-optimization package
// elsewhere in the retrieval pack (tournament selection, elitism, geometric
// cooling, accept-with-probability-exp); ACO has no such precedent in the
// pack and is implemented directly from spec.md §4.4's description.
package selector

import (
	"math"
	"math/rand"
	"sort"

	"github.com/draymaster/dispatchsim/internal/config"
)

// Pool is the scored, index-addressable candidate set the selector works
// over (spec.md §9: "represent the pool as an indexed contiguous array").
type Pool struct {
	Scores []float64 // one priority score per index, aligned with the caller's OS slice
}

// PreFilter reduces a pool of N scored indices to at most K*4 entries,
// keeping the highest-scored, when N > 4K (spec.md §4.4 performance
// pre-filter). order must already reflect the tie-break ranking (descending
// score, with ties broken as priority.Rank does).
func PreFilter(order []int, k int) []int {
	limit := k * 4
	if len(order) <= limit {
		return order
	}
	return order[:limit]
}

// Select runs GA -> SA -> ACO over pool restricted to the given candidate
// indices, returning at most k indices into the caller's original slice.
func Select(rng *rand.Rand, tunables *config.EngineTunables, pool Pool, candidates []int, k int) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k == 1 {
		return []int{argmax(pool, candidates)}
	}
	if k >= len(candidates) {
		k = len(candidates)
	}

	gaBest := runGA(rng, tunables.GA, pool, candidates, k)
	saBest := runSA(rng, tunables.SA, pool, gaBest)
	acoBest := runACO(rng, tunables.ACO, pool, candidates, saBest, k)
	return acoBest
}

func argmax(pool Pool, candidates []int) int {
	best := candidates[0]
	bestScore := pool.Scores[best]
	for _, idx := range candidates[1:] {
		if pool.Scores[idx] > bestScore {
			best = idx
			bestScore = pool.Scores[idx]
		}
	}
	return best
}

func fitness(pool Pool, subset []int) float64 {
	if len(subset) == 0 {
		return 0
	}
	sum := 0.0
	for _, idx := range subset {
		sum += pool.Scores[idx]
	}
	return sum / float64(len(subset))
}

// --- Genetic algorithm -----------------------------------------------------

type chromosome struct {
	subset  []int
	fitness float64
}

func runGA(rng *rand.Rand, cfg config.GARules, pool Pool, candidates []int, k int) []int {
	population := make([]chromosome, cfg.PopulationSize)
	for i := range population {
		population[i] = chromosome{subset: randomSubset(rng, candidates, k)}
	}

	for gen := 0; gen < cfg.Generations; gen++ {
		for i := range population {
			population[i].fitness = fitness(pool, population[i].subset)
		}
		sort.Slice(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})

		next := make([]chromosome, cfg.PopulationSize)
		elite := cfg.Elitism
		if elite > len(population) {
			elite = len(population)
		}
		copy(next[:elite], population[:elite])

		for i := elite; i < len(next); i++ {
			parent1 := tournamentSelect(rng, population)
			parent2 := tournamentSelect(rng, population)
			child := crossover(rng, parent1, parent2, candidates, k)
			if rng.Float64() < cfg.MutationRate {
				child = mutate(rng, child, candidates)
			}
			next[i] = chromosome{subset: child}
		}
		population = next
	}

	for i := range population {
		population[i].fitness = fitness(pool, population[i].subset)
	}
	sort.Slice(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
	return population[0].subset
}

func tournamentSelect(rng *rand.Rand, population []chromosome) chromosome {
	a := population[rng.Intn(len(population))]
	b := population[rng.Intn(len(population))]
	if a.fitness >= b.fitness {
		return a
	}
	return b
}

// crossover performs a single-cut subset crossover: take a prefix of
// parent1 and fill the remainder from parent2, repairing duplicates/missing
// indices against the full candidate set (spec.md §4.4).
func crossover(rng *rand.Rand, p1, p2 chromosome, candidates []int, k int) []int {
	if k == 0 {
		return nil
	}
	cut := 1 + rng.Intn(k)
	child := make([]int, 0, k)
	seen := make(map[int]bool, k)
	for i := 0; i < cut && i < len(p1.subset); i++ {
		if !seen[p1.subset[i]] {
			child = append(child, p1.subset[i])
			seen[p1.subset[i]] = true
		}
	}
	for _, idx := range p2.subset {
		if len(child) >= k {
			break
		}
		if !seen[idx] {
			child = append(child, idx)
			seen[idx] = true
		}
	}
	for _, idx := range candidates {
		if len(child) >= k {
			break
		}
		if !seen[idx] {
			child = append(child, idx)
			seen[idx] = true
		}
	}
	return child
}

func mutate(rng *rand.Rand, subset []int, candidates []int) []int {
	if len(subset) == 0 {
		return subset
	}
	inSubset := make(map[int]bool, len(subset))
	for _, idx := range subset {
		inSubset[idx] = true
	}
	outside := make([]int, 0, len(candidates))
	for _, idx := range candidates {
		if !inSubset[idx] {
			outside = append(outside, idx)
		}
	}
	if len(outside) == 0 {
		return subset
	}
	mutated := make([]int, len(subset))
	copy(mutated, subset)
	pos := rng.Intn(len(mutated))
	replacement := outside[rng.Intn(len(outside))]
	mutated[pos] = replacement
	return dedupe(mutated)
}

func dedupe(subset []int) []int {
	seen := make(map[int]bool, len(subset))
	out := make([]int, 0, len(subset))
	for _, idx := range subset {
		if !seen[idx] {
			out = append(out, idx)
			seen[idx] = true
		}
	}
	return out
}

func randomSubset(rng *rand.Rand, candidates []int, k int) []int {
	shuffled := make([]int, len(candidates))
	copy(shuffled, candidates)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[:k]
}

// --- Simulated annealing ----------------------------------------------------

func runSA(rng *rand.Rand, cfg config.SARules, pool Pool, start []int) []int {
	current := append([]int(nil), start...)
	currentFitness := fitness(pool, current)

	best := append([]int(nil), current...)
	bestFitness := currentFitness

	temperature := cfg.StartTemperature
	for temperature >= cfg.MinTemperature {
		neighbor := swapNeighbor(rng, current)
		neighborFitness := fitness(pool, neighbor)

		delta := neighborFitness - currentFitness
		if delta > 0 || rng.Float64() < math.Exp(delta/temperature) {
			current = neighbor
			currentFitness = neighborFitness
			if currentFitness > bestFitness {
				best = append([]int(nil), current...)
				bestFitness = currentFitness
			}
		}
		temperature *= cfg.CoolingRate
	}
	return best
}

func swapNeighbor(rng *rand.Rand, subset []int) []int {
	if len(subset) < 2 {
		return subset
	}
	neighbor := make([]int, len(subset))
	copy(neighbor, subset)
	i, j := rng.Intn(len(neighbor)), rng.Intn(len(neighbor))
	neighbor[i], neighbor[j] = neighbor[j], neighbor[i]
	return neighbor
}

// --- Ant colony optimization -------------------------------------------------

func runACO(rng *rand.Rand, cfg config.ACORules, pool Pool, candidates []int, seed []int, k int) []int {
	pheromone := make(map[int]float64, len(candidates))
	for _, idx := range candidates {
		pheromone[idx] = 1
	}
	for _, idx := range seed {
		pheromone[idx] += 1 // boosted by the SA winner
	}

	globalBest := append([]int(nil), seed...)
	globalBestFitness := fitness(pool, seed)

	for iter := 0; iter < cfg.Iterations; iter++ {
		drawn := weightedSampleWithoutReplacement(rng, candidates, pheromone, minInt(k, len(candidates)))
		drawnFitness := fitness(pool, drawn)
		if drawnFitness > globalBestFitness {
			globalBest = drawn
			globalBestFitness = drawnFitness
		}

		for idx := range pheromone {
			pheromone[idx] *= (1 - cfg.Evaporation)
		}
		score := drawnFitness
		for _, idx := range drawn {
			pheromone[idx] += score / cfg.ReinforceDivisor
		}

		floorAndNormalize(pheromone, cfg.PheromoneFloor)
	}

	return globalBest
}

func floorAndNormalize(pheromone map[int]float64, floor float64) {
	sum := 0.0
	for idx, v := range pheromone {
		if v < floor {
			pheromone[idx] = floor
		}
		sum += pheromone[idx]
	}
	if sum <= 0 {
		return
	}
	for idx := range pheromone {
		pheromone[idx] /= sum
	}
}

func weightedSampleWithoutReplacement(rng *rand.Rand, candidates []int, weights map[int]float64, n int) []int {
	remaining := append([]int(nil), candidates...)
	drawn := make([]int, 0, n)
	for i := 0; i < n && len(remaining) > 0; i++ {
		total := 0.0
		for _, idx := range remaining {
			total += weights[idx]
		}
		if total <= 0 {
			drawn = append(drawn, remaining[0])
			remaining = remaining[1:]
			continue
		}
		r := rng.Float64() * total
		acc := 0.0
		chosen := 0
		for pos, idx := range remaining {
			acc += weights[idx]
			if r <= acc {
				chosen = pos
				break
			}
		}
		drawn = append(drawn, remaining[chosen])
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
	}
	return drawn
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

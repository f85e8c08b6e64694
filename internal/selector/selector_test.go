package selector

import (
	"math/rand"
	"testing"

	"github.com/draymaster/dispatchsim/internal/config"
)

func TestSelect_KEqualsOneReturnsArgmax(t *testing.T) {
	pool := Pool{Scores: []float64{1, 5, 3}}
	rng := rand.New(rand.NewSource(1))
	tunables := config.DefaultEngineTunables()

	got := Select(rng, tunables, pool, []int{0, 1, 2}, 1)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Select() = %v, want [1] (argmax)", got)
	}
}

func TestSelect_ReturnsAtMostK(t *testing.T) {
	pool := Pool{Scores: []float64{1, 2, 3, 4, 5, 6, 7, 8}}
	rng := rand.New(rand.NewSource(1))
	tunables := config.DefaultEngineTunables()
	candidates := []int{0, 1, 2, 3, 4, 5, 6, 7}

	got := Select(rng, tunables, pool, candidates, 3)
	if len(got) > 3 {
		t.Errorf("Select() returned %d indices, want <= 3", len(got))
	}
}

func TestSelect_NoCandidatesReturnsEmpty(t *testing.T) {
	pool := Pool{Scores: nil}
	rng := rand.New(rand.NewSource(1))
	tunables := config.DefaultEngineTunables()

	got := Select(rng, tunables, pool, nil, 5)
	if len(got) != 0 {
		t.Errorf("Select() = %v, want empty", got)
	}
}

func TestPreFilter_KeepsAllWhenUnderLimit(t *testing.T) {
	order := []int{0, 1, 2}
	got := PreFilter(order, 5) // limit = 20
	if len(got) != 3 {
		t.Errorf("PreFilter() = %v, want all 3 entries kept", got)
	}
}

func TestPreFilter_TrimsWhenOverLimit(t *testing.T) {
	order := make([]int, 100)
	for i := range order {
		order[i] = i
	}
	got := PreFilter(order, 2) // limit = 8
	if len(got) != 8 {
		t.Errorf("PreFilter() returned %d entries, want 8", len(got))
	}
}

func TestFloorAndNormalize_SumsToOne(t *testing.T) {
	pheromone := map[int]float64{0: 0.5, 1: 0.3, 2: 0.2}
	floorAndNormalize(pheromone, 1e-6)

	sum := 0.0
	for _, v := range pheromone {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("sum after normalize = %v, want ~1.0", sum)
	}
}

func TestFloorAndNormalize_AvoidsZeroEntries(t *testing.T) {
	pheromone := map[int]float64{0: 1, 1: 0}
	floorAndNormalize(pheromone, 0.01)

	if pheromone[1] <= 0 {
		t.Errorf("expected zero entry to be floored above zero before normalizing, got %v", pheromone[1])
	}
}

package config

// EngineTunables holds the metaheuristic hyperparameters for the candidate
// selector (C4), ported from the teacher's BusinessRules-as-nested-structs
// pattern (shared/pkg/config/business_rules.go) but re-keyed to GA/SA/ACO
// knobs instead of freight rating rules.
type EngineTunables struct {
	GA  GARules
	SA  SARules
	ACO ACORules
}

// GARules configures the genetic-algorithm stage (spec.md §4.4.1).
type GARules struct {
	PopulationSize  int     // 20-25
	Generations     int     // 10-15
	Elitism         int     // top-N carried unchanged each generation
	MutationRate    float64 // swap-mutation probability, default 0.2
}

// SARules configures the simulated-annealing stage (spec.md §4.4.2).
type SARules struct {
	StartTemperature float64 // 100
	CoolingRate      float64 // geometric cooling factor, default 0.9
	MinTemperature   float64 // stop once T falls below this
}

// ACORules configures the ant-colony stage (spec.md §4.4.3).
type ACORules struct {
	Evaporation      float64 // pheromone evaporation factor, default 0.5
	ReinforceDivisor float64 // reinforcement = score / ReinforceDivisor, default 10
	PheromoneFloor   float64 // epsilon floor before normalisation
	Iterations       int
}

// DefaultEngineTunables returns the hyperparameter defaults named in spec.md §4.4.
func DefaultEngineTunables() *EngineTunables {
	return &EngineTunables{
		GA: GARules{
			PopulationSize: 25,
			Generations:    15,
			Elitism:        10,
			MutationRate:   0.2,
		},
		SA: SARules{
			StartTemperature: 100,
			CoolingRate:      0.9,
			MinTemperature:   1,
		},
		ACO: ACORules{
			Evaporation:      0.5,
			ReinforceDivisor: 10,
			PheromoneFloor:   1e-6,
			Iterations:       20,
		},
	}
}

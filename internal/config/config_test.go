package config

import "testing"

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	cfg := Load()
	if cfg.Engine.PerCrewLimit != 15 {
		t.Errorf("PerCrewLimit = %d, want 15", cfg.Engine.PerCrewLimit)
	}
	if cfg.Engine.OverrunFraction != 0.01 {
		t.Errorf("OverrunFraction = %v, want 0.01", cfg.Engine.OverrunFraction)
	}
	if !cfg.Engine.DaytimeCodes[739] || !cfg.Engine.DaytimeCodes[741] {
		t.Errorf("DaytimeCodes = %v, want the defaults {739, 741}", cfg.Engine.DaytimeCodes)
	}
}

func TestLoad_RespectsEnvOverrides(t *testing.T) {
	t.Setenv("K", "25")
	t.Setenv("DAYTIME_CODES", "100,200,300")

	cfg := Load()
	if cfg.Engine.PerCrewLimit != 25 {
		t.Errorf("PerCrewLimit = %d, want 25", cfg.Engine.PerCrewLimit)
	}
	if len(cfg.Engine.DaytimeCodes) != 3 || !cfg.Engine.DaytimeCodes[200] {
		t.Errorf("DaytimeCodes = %v, want {100, 200, 300}", cfg.Engine.DaytimeCodes)
	}
}

func TestGetEnvIntSet_FallsBackOnAllInvalidEntries(t *testing.T) {
	t.Setenv("DAYTIME_CODES", "not,a,number")
	set := getEnvIntSet("DAYTIME_CODES", []int{1, 2})
	if !set[1] || !set[2] || len(set) != 2 {
		t.Errorf("getEnvIntSet() = %v, want fallback to default {1, 2}", set)
	}
}

func TestDefaultEngineTunables_MatchesDocumentedDefaults(t *testing.T) {
	tun := DefaultEngineTunables()
	if tun.GA.PopulationSize != 25 || tun.GA.Generations != 15 || tun.GA.Elitism != 10 {
		t.Errorf("GA defaults = %+v, want population 25, generations 15, elitism 10", tun.GA)
	}
	if tun.SA.StartTemperature != 100 || tun.SA.CoolingRate != 0.9 {
		t.Errorf("SA defaults = %+v, want start temp 100, cooling 0.9", tun.SA)
	}
	if tun.ACO.Evaporation != 0.5 || tun.ACO.Iterations != 20 {
		t.Errorf("ACO defaults = %+v, want evaporation 0.5, iterations 20", tun.ACO)
	}
}

package config

import "testing"

func TestHeuristicBandDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.LeverageBands != [3]float64{10, 5, 2} {
		t.Errorf("Expected default leverage bands, got %v", cfg.LeverageBands)
	}
	if cfg.LiqRiskBands != [2]float64{100_000_000, 50_000_000} {
		t.Errorf("Expected default liquidation risk bands, got %v", cfg.LiqRiskBands)
	}
	if cfg.ImpactBands != [2]float64{500_000_000, 100_000_000} {
		t.Errorf("Expected default impact bands, got %v", cfg.ImpactBands)
	}
}

func TestHeuristicBandOverrides(t *testing.T) {
	t.Setenv("LEVERAGE_BAND_HIGH", "20")
	t.Setenv("LEVERAGE_BAND_MID", "8")
	t.Setenv("LEVERAGE_BAND_LOW", "3")
	t.Setenv("LIQ_RISK_VOLUME_LOW", "200000000")
	t.Setenv("LIQ_RISK_VOLUME_MEDIUM", "75000000")
	t.Setenv("IMPACT_OI_MINIMAL", "1000000000")
	t.Setenv("IMPACT_OI_MODERATE", "250000000")

	cfg := LoadConfig()

	if cfg.LeverageBands != [3]float64{20, 8, 3} {
		t.Errorf("Expected leverage bands from env, got %v", cfg.LeverageBands)
	}
	if cfg.LiqRiskBands != [2]float64{200_000_000, 75_000_000} {
		t.Errorf("Expected liquidation risk bands from env, got %v", cfg.LiqRiskBands)
	}
	if cfg.ImpactBands != [2]float64{1_000_000_000, 250_000_000} {
		t.Errorf("Expected impact bands from env, got %v", cfg.ImpactBands)
	}
}

func TestWhaleThresholdClampedToFloor(t *testing.T) {
	t.Setenv("WHALE_THRESHOLD", "500")

	cfg := LoadConfig()

	if cfg.WhaleThreshold != MinWhaleThreshold {
		t.Errorf("Expected threshold clamped to %d, got %f", MinWhaleThreshold, cfg.WhaleThreshold)
	}
}

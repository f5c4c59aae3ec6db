package effects

import (
	"testing"
	"time"
)

// TestDefaultConfig verifies the stock setup has sane tunables
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Scanlines || !cfg.Particles || !cfg.Glitch {
		t.Error("Default config should enable the visual effects")
	}
	if cfg.ParticleInterval <= 0 || cfg.GlitchInterval <= 0 {
		t.Error("Default intervals must be positive")
	}
	if len(cfg.ParticleColors) == 0 {
		t.Error("Default palette must not be empty")
	}
}

// TestMergedAppliesOnlySetFields verifies nil overlay fields keep
// their current values
func TestMergedAppliesOnlySetFields(t *testing.T) {
	cfg := DefaultConfig()
	out := cfg.merged(Options{
		Particles:      Bool(false),
		GlitchInterval: Duration(2 * time.Second),
	})

	if out.Particles {
		t.Error("Particles should be off after merge")
	}
	if out.GlitchInterval != 2*time.Second {
		t.Errorf("Expected 2s glitch interval, got %v", out.GlitchInterval)
	}
	if out.Scanlines != cfg.Scanlines || out.ParticleInterval != cfg.ParticleInterval {
		t.Error("Unset fields changed during merge")
	}
}

// TestMergedRejectsNonPositiveIntervals verifies zero and negative
// tunables are ignored rather than applied
func TestMergedRejectsNonPositiveIntervals(t *testing.T) {
	cfg := DefaultConfig()
	out := cfg.merged(Options{
		ParticleInterval: Duration(0),
		GlitchInterval:   Duration(-time.Second),
	})
	if out.ParticleInterval != cfg.ParticleInterval || out.GlitchInterval != cfg.GlitchInterval {
		t.Error("Non-positive intervals should be dropped at the boundary")
	}
}

// TestMergedDropsInvalidColors verifies palette validation at the boundary
func TestMergedDropsInvalidColors(t *testing.T) {
	cfg := DefaultConfig()
	out := cfg.merged(Options{
		ParticleColors: []string{"#FF0000", "chartreuse", "#00FF00", "##bad"},
	})
	if len(out.ParticleColors) != 2 {
		t.Fatalf("Expected 2 valid colors, got %v", out.ParticleColors)
	}
	if out.ParticleColors[0] != "#FF0000" || out.ParticleColors[1] != "#00FF00" {
		t.Errorf("Wrong colors survived: %v", out.ParticleColors)
	}
}

// TestPaletteFallback verifies an empty palette still yields a color
func TestPaletteFallback(t *testing.T) {
	cfg := Config{}
	if len(cfg.palette()) != 1 {
		t.Error("Empty palette should fall back to a single color")
	}
}

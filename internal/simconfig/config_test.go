package simconfig

import (
	"flag"
	"testing"
)

func TestDefaultIsUsable(t *testing.T) {
	c := Default()
	if c.MaxSpeed <= 0 {
		t.Fatalf("MaxSpeed should be positive, got %v", c.MaxSpeed)
	}
	if c.DT <= 0 {
		t.Fatalf("DT should be positive, got %v", c.DT)
	}
	if c.SpatialIndex == "" {
		t.Fatalf("SpatialIndex should have a default")
	}
}

func TestRegisterFlagsOverridesField(t *testing.T) {
	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse([]string{"-max-speed=5.5", "-spatial-index=grid", "-parallel-solve=false"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.MaxSpeed != 5.5 {
		t.Errorf("MaxSpeed = %v, want 5.5", c.MaxSpeed)
	}
	if c.SpatialIndex != "grid" {
		t.Errorf("SpatialIndex = %v, want grid", c.SpatialIndex)
	}
	if c.ParallelSolve {
		t.Errorf("ParallelSolve should have been overridden to false")
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.json"); err == nil {
		t.Fatalf("expected an error loading a missing config file")
	}
}

package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewTestUnit(t *testing.T) {
	u := NewTestUnit("pkg/login.TestSession", "pkg/db.TestMigrate", 3)

	if u.Status != UnitQueued {
		t.Errorf("Status = %q, want %q", u.Status, UnitQueued)
	}
	if u.Delay != 3*time.Minute {
		t.Errorf("Delay = %v, want %v", u.Delay, 3*time.Minute)
	}
	if !u.HasDependency() {
		t.Error("HasDependency() = false, want true")
	}
	if u.FinishedAt != nil {
		t.Error("FinishedAt set on a fresh unit")
	}
}

func TestTestUnit_Validate(t *testing.T) {
	tests := []struct {
		name      string
		dependsOn string
		delay     time.Duration
		wantErr   bool
	}{
		{"no dependency, no delay", "", 0, false},
		{"dependency with delay", "other", time.Minute, false},
		{"dependency without delay", "other", 0, true},
		{"delay without dependency", "", time.Minute, true},
		{"negative delay", "", -time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &TestUnit{ID: "u", Status: UnitQueued, DependsOn: tt.dependsOn, Delay: tt.delay}
			err := u.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Validate() error type = %T, want *ConfigurationError", err)
				}
			}
		})
	}
}

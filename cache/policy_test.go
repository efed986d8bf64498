package cache

import "testing"

func TestPolicy_DefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if !p.ShouldCache() {
		t.Error("DefaultPolicy should cache")
	}
	if p.Skips("precision_score") {
		t.Error("DefaultPolicy should not skip any operation")
	}
}

func TestPolicy_NoCachePolicy(t *testing.T) {
	p := NoCachePolicy()
	if p.ShouldCache() {
		t.Error("NoCachePolicy should not cache")
	}
}

func TestPolicy_Skips(t *testing.T) {
	tests := []struct {
		name string
		skip []string
		op   string
		want bool
	}{
		{"empty list", nil, "predict", false},
		{"listed", []string{"predict", "my_metric"}, "my_metric", true},
		{"not listed", []string{"predict"}, "predict_proba", false},
		{"case sensitive", []string{"Predict"}, "predict", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{Enabled: true, SkipOperations: tt.skip}
			if got := p.Skips(tt.op); got != tt.want {
				t.Errorf("Skips(%q) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

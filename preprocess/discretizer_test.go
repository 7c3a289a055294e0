package preprocess

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testConfig() DiscretizerConfig {
	return DiscretizerConfig{
		IDToChannel: []string{"Heart Rate", "Glascow coma scale total"},
		IsCategorical: map[string]bool{
			"Heart Rate":               false,
			"Glascow coma scale total": true,
		},
		NormalValues: map[string]string{
			"Heart Rate":               "86",
			"Glascow coma scale total": "15",
		},
		PossibleValues: map[string][]string{
			"Glascow coma scale total": {"13", "14", "15"},
		},
	}
}

var (
	testHeader = []string{"Hours", "Heart Rate", "Glascow coma scale total"}
	testRows   = [][]string{
		{"0.1", "90", "14"},
		{"2.0", "91", ""},
		{"3.2", "", "13"},
	}
)

func newTestDiscretizer(t *testing.T, opts ...DiscretizerOption) *Discretizer {
	t.Helper()
	d, err := NewDiscretizer(testConfig(), append([]DiscretizerOption{WithTimestep(1.0)}, opts...)...)
	if err != nil {
		t.Fatalf("NewDiscretizer failed: %v", err)
	}
	return d
}

func TestDiscretizer_PreviousImpute(t *testing.T) {
	d := newTestDiscretizer(t)

	data, header, err := d.Transform(testHeader, testRows, 4.5)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}

	wantHeader := []string{
		"Heart Rate",
		"Glascow coma scale total->13",
		"Glascow coma scale total->14",
		"Glascow coma scale total->15",
		"mask->Heart Rate",
		"mask->Glascow coma scale total",
	}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Fatalf("unexpected header: %v", header)
	}

	// 2.0h falls into bin 1 because bins are computed as int(t/timestep - eps).
	want := [][]float32{
		{90, 0, 1, 0, 1, 1},
		{91, 0, 1, 0, 1, 0},
		{91, 0, 1, 0, 0, 0},
		{91, 1, 0, 0, 0, 1},
		{91, 1, 0, 0, 0, 0},
	}
	if !reflect.DeepEqual(data, want) {
		t.Fatalf("unexpected data:\n got %v\nwant %v", data, want)
	}
	if d.Width() != 6 {
		t.Fatalf("expected width 6, got %d", d.Width())
	}
}

func TestDiscretizer_ImputeStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		bin      int
		want     []float32
	}{
		{"zero leaves gaps empty", ImputeZero, 2, []float32{0, 0, 0, 0, 0, 0}},
		{"normal value fills gaps", ImputeNormalValue, 1, []float32{91, 0, 0, 1, 1, 0}},
		{"normal value in empty bin", ImputeNormalValue, 2, []float32{86, 0, 0, 1, 0, 0}},
		{"next looks ahead", ImputeNext, 2, []float32{86, 1, 0, 0, 0, 0}},
		{"next falls back to normal", ImputeNext, 4, []float32{86, 0, 0, 1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDiscretizer(t, WithImpute(tt.strategy))
			data, _, err := d.Transform(testHeader, testRows, 4.5)
			if err != nil {
				t.Fatalf("Transform error: %v", err)
			}
			if !reflect.DeepEqual(data[tt.bin], tt.want) {
				t.Fatalf("bin %d: got %v want %v", tt.bin, data[tt.bin], tt.want)
			}
		})
	}
}

func TestDiscretizer_EndAndStartTime(t *testing.T) {
	d := newTestDiscretizer(t, WithMasks(false))
	data, header, err := d.Transform(testHeader, testRows, -1)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	// last row at 3.2h -> int(3.2 + 1 - eps) = 4 bins
	if len(data) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(data))
	}
	if len(header) != 4 || len(data[0]) != 4 {
		t.Fatalf("expected 4 columns without masks, got header=%d row=%d", len(header), len(data[0]))
	}

	// rows beyond the end are dropped
	data, _, err = d.Transform(testHeader, testRows, 1.5)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("expected 2 bins, got %d", len(data))
	}

	rel := newTestDiscretizer(t, WithStartTime(StartRelative))
	data, _, err = rel.Transform(testHeader, testRows, 2.1)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	// 2.1 - 0.1 = 2.0 hours -> 2 bins
	if len(data) != 2 {
		t.Fatalf("expected 2 bins with relative start, got %d", len(data))
	}
	if data[0][0] != 90 {
		t.Fatalf("expected first row at bin 0, got %v", data[0])
	}
}

func TestDiscretizer_Errors(t *testing.T) {
	d := newTestDiscretizer(t)

	if _, _, err := d.Transform([]string{"Hours", "Weight"}, [][]string{{"0", "70"}}, 1); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
	if _, _, err := d.Transform(testHeader, [][]string{{"0", "80", "3"}}, 1); err == nil {
		t.Fatalf("expected error for unknown categorical value")
	}
	if _, _, err := d.Transform(testHeader, [][]string{{"0", "fast", ""}}, 1); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if _, _, err := d.Transform(testHeader, [][]string{{"x", "80", ""}}, 1); err == nil {
		t.Fatalf("expected error for bad time")
	}

	if _, err := NewDiscretizer(testConfig(), WithImpute("mean")); err == nil {
		t.Fatalf("expected error for unknown impute strategy")
	}
	if _, err := NewDiscretizer(testConfig(), WithTimestep(0)); err == nil {
		t.Fatalf("expected error for zero timestep")
	}
	if _, err := NewDiscretizer(DiscretizerConfig{}); err == nil {
		t.Fatalf("expected error for empty config")
	}
}

func TestDiscretizer_ContinuousColumns(t *testing.T) {
	d := newTestDiscretizer(t)
	if got := d.ContinuousColumns(); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("unexpected continuous columns: %v", got)
	}
}

func TestLoadDiscretizerConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discretizer_config.json")
	content := `{
  "id_to_channel": ["Heart Rate", "Glascow coma scale total"],
  "is_categorical_channel": {"Heart Rate": false, "Glascow coma scale total": true},
  "normal_values": {"Heart Rate": "86", "Glascow coma scale total": "15"},
  "possible_values": {"Heart Rate": [], "Glascow coma scale total": ["13", "14", "15"]}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadDiscretizerConfig(path)
	if err != nil {
		t.Fatalf("LoadDiscretizerConfig error: %v", err)
	}
	if len(cfg.IDToChannel) != 2 || !cfg.IsCategorical["Glascow coma scale total"] {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, err := NewDiscretizer(cfg); err != nil {
		t.Fatalf("NewDiscretizer with loaded config failed: %v", err)
	}

	if _, err := LoadDiscretizerConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing config")
	}
}

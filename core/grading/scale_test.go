package grading

import (
	"testing"

	"github.com/trezcool/shule/core"
)

func TestNewScale(t *testing.T) {
	tests := []struct {
		name       string
		fallback   string
		boundaries []Boundary
		wantErr    bool
	}{
		{
			name:     "empty fallback",
			fallback: "",
			boundaries: []Boundary{
				{Letter: "A", Min: 90},
			},
			wantErr: true,
		},
		{
			name:     "empty letter",
			fallback: "F",
			boundaries: []Boundary{
				{Letter: "A", Min: 90},
				{Letter: "", Min: 80},
			},
			wantErr: true,
		},
		{
			name:     "ascending thresholds",
			fallback: "F",
			boundaries: []Boundary{
				{Letter: "A", Min: 80},
				{Letter: "B", Min: 90},
			},
			wantErr: true,
		},
		{
			name:     "equal thresholds",
			fallback: "F",
			boundaries: []Boundary{
				{Letter: "A", Min: 90},
				{Letter: "B", Min: 90},
			},
			wantErr: true,
		},
		{
			name:       "no boundaries", // fallback-only scale is fine
			fallback:   "F",
			boundaries: nil,
		},
		{
			name:     "ok",
			fallback: "F",
			boundaries: []Boundary{
				{Letter: "A", Min: 90},
				{Letter: "B", Min: 80},
				{Letter: "C", Min: 70},
				{Letter: "D", Min: 60},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScale(tt.fallback, tt.boundaries...)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewScale() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !core.IsConfigError(err) {
				t.Errorf("NewScale() error = %v, want ConfigError", err)
			}
		})
	}
}

func TestParseScale(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		fallback string
		wantErr  bool
		want     []Boundary
	}{
		{
			name:     "standard table",
			spec:     "A:90,B:80,C:70,D:60",
			fallback: "F",
			want: []Boundary{
				{Letter: "A", Min: 90},
				{Letter: "B", Min: 80},
				{Letter: "C", Min: 70},
				{Letter: "D", Min: 60},
			},
		},
		{
			name:     "whitespace and case are cleaned",
			spec:     " a : 90 , b:80 ",
			fallback: "F",
			want: []Boundary{
				{Letter: "A", Min: 90},
				{Letter: "B", Min: 80},
			},
		},
		{
			name:     "empty spec", // fallback-only
			spec:     "",
			fallback: "F",
			want:     []Boundary{},
		},
		{name: "missing threshold", spec: "A:90,B", fallback: "F", wantErr: true},
		{name: "bad threshold", spec: "A:ninety", fallback: "F", wantErr: true},
		{name: "ascending thresholds", spec: "A:60,B:90", fallback: "F", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale, err := ParseScale(tt.spec, tt.fallback)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScale() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			got := scale.Boundaries()
			if len(got) != len(tt.want) {
				t.Fatalf("ParseScale() boundaries = %v, want %v", got, tt.want)
			}
			for i, b := range got {
				if b != tt.want[i] {
					t.Errorf("ParseScale() boundary %d = %v, want %v", i, b, tt.want[i])
				}
			}
			if scale.Fallback() != tt.fallback {
				t.Errorf("ParseScale() fallback = %v, want %v", scale.Fallback(), tt.fallback)
			}
		})
	}
}

func TestScale_LetterFor(t *testing.T) {
	scale := DefaultScale()

	tests := []struct {
		percentage float64
		want       string
	}{
		{percentage: 100, want: "A"},
		{percentage: 92, want: "A"},
		{percentage: 90, want: "A"}, // boundaries are inclusive
		{percentage: 89.9, want: "B"},
		{percentage: 80, want: "B"},
		{percentage: 70, want: "C"},
		{percentage: 60, want: "D"},
		{percentage: 59.9, want: "F"},
		{percentage: 0, want: "F"},
		{percentage: 105, want: "A"}, // scores above max are not clamped
	}
	for _, tt := range tests {
		if got := scale.LetterFor(tt.percentage); got != tt.want {
			t.Errorf("LetterFor(%v) = %v, want %v", tt.percentage, got, tt.want)
		}
	}
}

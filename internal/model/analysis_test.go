package model

import "testing"

func TestAnalysisStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from AnalysisStatus
		to   AnalysisStatus
		want bool
	}{
		{"pending to running", AnalysisPending, AnalysisRunning, true},
		{"pending to failed", AnalysisPending, AnalysisFailed, true},
		{"pending to completed direct", AnalysisPending, AnalysisCompleted, false},
		{"running to completed", AnalysisRunning, AnalysisCompleted, true},
		{"running to failed", AnalysisRunning, AnalysisFailed, true},
		{"running to pending regression", AnalysisRunning, AnalysisPending, false},
		{"completed to anything", AnalysisCompleted, AnalysisFailed, false},
		{"failed to anything", AnalysisFailed, AnalysisCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.CanTransitionTo(tt.to)
			if got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestAnalysisStatusIsTerminal(t *testing.T) {
	if AnalysisPending.IsTerminal() {
		t.Error("Pending should not be terminal")
	}
	if AnalysisRunning.IsTerminal() {
		t.Error("Running should not be terminal")
	}
	if !AnalysisCompleted.IsTerminal() {
		t.Error("Completed should be terminal")
	}
	if !AnalysisFailed.IsTerminal() {
		t.Error("Failed should be terminal")
	}
}

package dataset

import (
	"math"
	"os"
	"strings"
	"testing"
)

const sampleFile = "testdata/winequality-sample.csv"

func loadSample(t *testing.T) *Table {
	t.Helper()
	f, err := os.Open(sampleFile)
	if err != nil {
		t.Fatalf("failed to open fixture: %v", err)
	}
	defer f.Close()

	tbl, err := Parse(f)
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return tbl
}

func TestParseSample(t *testing.T) {
	tbl := loadSample(t)

	if got, want := tbl.NumRows(), 20; got != want {
		t.Errorf("NumRows() = %d, want %d", got, want)
	}
	if got, want := tbl.NumFeatures(), len(FeatureNames); got != want {
		t.Errorf("NumFeatures() = %d, want %d", got, want)
	}
	if got, want := len(tbl.Quality), 20; got != want {
		t.Errorf("len(Quality) = %d, want %d", got, want)
	}

	// Spot-check first and last rows against the raw file.
	if got := tbl.X.At(0, 0); math.Abs(got-7.4) > 1e-12 {
		t.Errorf("X[0,0] = %f, want 7.4", got)
	}
	if got := tbl.X.At(0, 10); math.Abs(got-9.4) > 1e-12 {
		t.Errorf("X[0,10] = %f, want 9.4", got)
	}
	if got := tbl.X.At(19, 4); math.Abs(got-0.341) > 1e-12 {
		t.Errorf("X[19,4] = %f, want 0.341", got)
	}
	if got := tbl.Quality[0]; got != 5 {
		t.Errorf("Quality[0] = %d, want 5", got)
	}
	if got := tbl.Quality[19]; got != 6 {
		t.Errorf("Quality[19] = %d, want 6", got)
	}
}

func TestParseErrors(t *testing.T) {
	header := `"fixed acidity";"volatile acidity";"citric acid";"residual sugar";"chlorides";"free sulfur dioxide";"total sulfur dioxide";"density";"pH";"sulphates";"alcohol";"quality"`

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "Header only",
			input: header + "\n",
		},
		{
			name:  "Empty input",
			input: "",
		},
		{
			name:  "Wrong column name",
			input: strings.Replace(header, "alcohol", "ethanol", 1) + "\n7.4;0.7;0;1.9;0.076;11;34;0.9978;3.51;0.56;9.4;5\n",
		},
		{
			name:  "Missing column",
			input: strings.Replace(header, `;"quality"`, "", 1) + "\n7.4;0.7;0;1.9;0.076;11;34;0.9978;3.51;0.56;9.4\n",
		},
		{
			name:  "Bad numeric cell",
			input: header + "\n7.4;abc;0;1.9;0.076;11;34;0.9978;3.51;0.56;9.4;5\n",
		},
		{
			name:  "Bad quality cell",
			input: header + "\n7.4;0.7;0;1.9;0.076;11;34;0.9978;3.51;0.56;9.4;five\n",
		},
		{
			name:  "Ragged row",
			input: header + "\n7.4;0.7;0\n",
		},
		{
			name:  "Comma separated",
			input: strings.ReplaceAll(header, ";", ",") + "\n7.4,0.7,0,1.9,0.076,11,34,0.9978,3.51,0.56,9.4,5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

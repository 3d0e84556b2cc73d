package ensemble

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// separableData builds a binary problem where feature 0 alone separates the
// classes at i == n/2.
func separableData(n int) (*mat.Dense, []int) {
	X := mat.NewDense(n, 4, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%10)/10.0)
		X.Set(i, 2, 0.5)
		X.Set(i, 3, float64(i%5)/5.0)
		if i >= n/2 {
			y[i] = 1
		}
	}
	return X, y
}

func TestRandomForestBinaryFit(t *testing.T) {
	X, y := separableData(100)

	clf := NewRandomForestClassifier().WithNEstimators(20)
	err := clf.Fit(X, y)
	require.NoError(t, err)

	assert.True(t, clf.IsFitted())
	assert.Equal(t, []int{0, 1}, clf.Classes())
}

func TestRandomForestPredict(t *testing.T) {
	X, y := separableData(100)

	clf := NewRandomForestClassifier().WithNEstimators(20)
	require.NoError(t, clf.Fit(X, y))

	predictions, err := clf.Predict(X)
	require.NoError(t, err)
	require.Len(t, predictions, 100)

	for _, pred := range predictions {
		assert.True(t, pred == 0 || pred == 1)
	}
}

func TestRandomForestPredictProba(t *testing.T) {
	X, y := separableData(100)

	clf := NewRandomForestClassifier().WithNEstimators(20)
	require.NoError(t, clf.Fit(X, y))

	proba, err := clf.PredictProba(X)
	require.NoError(t, err)

	rows, cols := proba.Dims()
	assert.Equal(t, 100, rows)
	assert.Equal(t, 2, cols)

	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			prob := proba.At(i, j)
			assert.GreaterOrEqual(t, prob, 0.0)
			assert.LessOrEqual(t, prob, 1.0)
			sum += prob
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestRandomForestScore(t *testing.T) {
	X, y := separableData(200)

	clf := NewRandomForestClassifier().WithNEstimators(30)
	require.NoError(t, clf.Fit(X, y))

	score, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.9)
}

func TestRandomForestReproducible(t *testing.T) {
	X, y := separableData(120)

	a := NewRandomForestClassifier().WithNEstimators(15).WithRandomState(7)
	b := NewRandomForestClassifier().WithNEstimators(15).WithRandomState(7)
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	predA, err := a.Predict(X)
	require.NoError(t, err)
	predB, err := b.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, predA, predB)

	probaA, err := a.PredictProba(X)
	require.NoError(t, err)
	probaB, err := b.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(probaA, probaB, 1e-12))
}

func TestRandomForestFeatureImportance(t *testing.T) {
	X, y := separableData(200)

	clf := NewRandomForestClassifier().WithNEstimators(30)
	require.NoError(t, clf.Fit(X, y))

	importances := clf.FeatureImportances()
	require.Len(t, importances, 4)

	sum := 0.0
	maxIdx := 0
	for i, imp := range importances {
		assert.GreaterOrEqual(t, imp, 0.0)
		sum += imp
		if imp > importances[maxIdx] {
			maxIdx = i
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 0, maxIdx, "feature 0 carries the signal")
}

func TestRandomForestOOBScore(t *testing.T) {
	X, y := separableData(200)

	clf := NewRandomForestClassifier().WithNEstimators(30)
	require.NoError(t, clf.Fit(X, y))

	oob := clf.OOBScore()
	assert.Greater(t, oob, 0.8)
	assert.LessOrEqual(t, oob, 1.0)
}

func TestRandomForestNotFittedError(t *testing.T) {
	clf := NewRandomForestClassifier()
	X := mat.NewDense(10, 4, nil)

	_, err := clf.Predict(X)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not fitted")

	_, err = clf.PredictProba(X)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not fitted")

	err = clf.Save(filepath.Join(t.TempDir(), "forest.json"))
	assert.Error(t, err)
}

// emptyMatrix is a zero-row matrix for exercising empty-input guards.
type emptyMatrix struct{}

func (emptyMatrix) Dims() (int, int)    { return 0, 4 }
func (emptyMatrix) At(int, int) float64 { return 0 }
func (emptyMatrix) T() mat.Matrix       { return emptyMatrix{} }

func TestRandomForestValidation(t *testing.T) {
	clf := NewRandomForestClassifier().WithNEstimators(5)

	t.Run("Empty data", func(t *testing.T) {
		err := clf.Fit(emptyMatrix{}, nil)
		assert.Error(t, err)
	})

	t.Run("Label length mismatch", func(t *testing.T) {
		X, y := separableData(50)
		err := clf.Fit(X, y[:30])
		assert.Error(t, err)
	})

	t.Run("Non-binary labels", func(t *testing.T) {
		X, y := separableData(50)
		y[10] = 3
		err := clf.Fit(X, y)
		assert.Error(t, err)
	})

	t.Run("Predict dimension mismatch", func(t *testing.T) {
		X, y := separableData(50)
		require.NoError(t, clf.Fit(X, y))
		_, err := clf.Predict(mat.NewDense(5, 7, nil))
		assert.Error(t, err)
	})
}

func TestRandomForestParameters(t *testing.T) {
	clf := NewRandomForestClassifier()

	err := clf.SetParams(map[string]interface{}{
		"n_estimators":      50,
		"max_depth":         5,
		"min_samples_split": 4,
		"min_samples_leaf":  2,
		"mtry":              3,
		"random_state":      7,
	})
	require.NoError(t, err)

	params := clf.GetParams()
	assert.Equal(t, 50, params["n_estimators"])
	assert.Equal(t, 5, params["max_depth"])
	assert.Equal(t, 4, params["min_samples_split"])
	assert.Equal(t, 2, params["min_samples_leaf"])
	assert.Equal(t, 3, params["max_features"])
	assert.Equal(t, int64(7), params["random_state"])

	// Grid values arrive as float64 after generic decoding; they must coerce.
	require.NoError(t, clf.SetParams(map[string]interface{}{"n_estimators": float64(25)}))
	assert.Equal(t, 25, clf.GetParams()["n_estimators"])

	err = clf.SetParams(map[string]interface{}{"no_such_param": 1})
	assert.Error(t, err)
}

func TestRandomForestSaveLoad(t *testing.T) {
	X, y := separableData(100)

	clf := NewRandomForestClassifier().WithNEstimators(10)
	require.NoError(t, clf.Fit(X, y))

	path := filepath.Join(t.TempDir(), "forest.json")
	require.NoError(t, clf.Save(path))

	loaded := NewRandomForestClassifier()
	require.NoError(t, loaded.Load(path))
	assert.True(t, loaded.IsFitted())
	assert.Equal(t, clf.Classes(), loaded.Classes())

	want, err := clf.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

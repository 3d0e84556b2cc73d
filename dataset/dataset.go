// Package dataset loads the Portuguese "Vinho Verde" red wine quality data,
// recodes the 0-10 sensory quality score into a binary good/bad label and
// runs the structural checks a modeling table must pass before any training
// happens.
//
// The canonical flow is Load -> CheckMissing -> Recode:
//
//	tbl, err := dataset.Load(ctx, dataset.DefaultSource())
//	if err != nil {
//	    return err
//	}
//	if err := tbl.CheckMissing(); err != nil {
//	    return err
//	}
//	ds, err := tbl.Recode(dataset.DefaultRule())
package dataset

import (
	"gonum.org/v1/gonum/mat"
)

// FeatureNames lists the 11 physicochemical predictors in CSV column order.
var FeatureNames = []string{
	"fixed acidity",
	"volatile acidity",
	"citric acid",
	"residual sugar",
	"chlorides",
	"free sulfur dioxide",
	"total sulfur dioxide",
	"density",
	"pH",
	"sulphates",
	"alcohol",
}

// QualityColumn is the name of the sensory outcome column.
const QualityColumn = "quality"

// Table is the raw parsed dataset: the numeric predictors and the original
// quality scores, before any recoding.
type Table struct {
	X        *mat.Dense // predictors, n x len(Features)
	Quality  []int      // sensory score per row, 0-10 scale
	Features []string
}

// NumRows returns the number of samples.
func (t *Table) NumRows() int {
	r, _ := t.X.Dims()
	return r
}

// NumFeatures returns the number of predictor columns.
func (t *Table) NumFeatures() int {
	_, c := t.X.Dims()
	return c
}

// Dataset is the modeling table after recoding: predictors plus a binary
// label per row. The quality column is gone; only the label remains.
type Dataset struct {
	X          *mat.Dense
	Labels     []int // 0 = bad, 1 = good
	LabelNames [2]string
	Features   []string
}

// NumRows returns the number of samples.
func (d *Dataset) NumRows() int {
	r, _ := d.X.Dims()
	return r
}

// NumFeatures returns the number of predictor columns.
func (d *Dataset) NumFeatures() int {
	_, c := d.X.Dims()
	return c
}

// LabelCounts returns the number of negative (bad) and positive (good) rows.
func (d *Dataset) LabelCounts() (negative, positive int) {
	for _, y := range d.Labels {
		if y == 1 {
			positive++
		} else {
			negative++
		}
	}
	return negative, positive
}

// Select returns the rows of d at the given indices as a new Dataset. The
// feature metadata is shared, the data is copied.
func (d *Dataset) Select(indices []int) *Dataset {
	_, c := d.X.Dims()
	sub := mat.NewDense(len(indices), c, nil)
	labels := make([]int, len(indices))
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			sub.Set(i, j, d.X.At(idx, j))
		}
		labels[i] = d.Labels[idx]
	}
	return &Dataset{
		X:          sub,
		Labels:     labels,
		LabelNames: d.LabelNames,
		Features:   d.Features,
	}
}

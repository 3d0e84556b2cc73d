package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/oenolab/winequality/pkg/errors"
)

// Parse reads the semicolon-separated wine quality CSV. The header row must
// carry exactly the 11 physicochemical columns followed by quality; anything
// else is a structural error. Ragged rows fail inside the csv reader.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}
	if len(records) < 2 {
		return nil, errors.NewValueError("Parse", "dataset has no data rows")
	}

	header := records[0]
	want := append(append([]string{}, FeatureNames...), QualityColumn)
	if len(header) != len(want) {
		return nil, errors.NewDimensionError("Parse", len(want), len(header), 1)
	}
	for i := range want {
		if strings.TrimSpace(header[i]) != want[i] {
			return nil, errors.NewValueError("Parse",
				fmt.Sprintf("unexpected column %d: got %q, want %q", i, header[i], want[i]))
		}
	}

	n := len(records) - 1
	X := mat.NewDense(n, len(FeatureNames), nil)
	quality := make([]int, n)
	for i, record := range records[1:] {
		for j := range FeatureNames {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid value at line %d, column %q", i+2, want[j])
			}
			X.Set(i, j, v)
		}
		q, err := strconv.Atoi(strings.TrimSpace(record[len(FeatureNames)]))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid quality at line %d", i+2)
		}
		quality[i] = q
	}

	return &Table{
		X:        X,
		Quality:  quality,
		Features: append([]string{}, FeatureNames...),
	}, nil
}

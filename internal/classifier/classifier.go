// Package classifier loads the pre-trained student performance model and
// exposes it through a narrow predict contract. The model is produced by an
// offline training pipeline and is never modified here.
package classifier

import (
	"errors"
	"fmt"
)

// Categorical columns, in the order the model expects them.
const (
	ColumnGender            = "gender"
	ColumnRaceEthnicity     = "race/ethnicity"
	ColumnParentalEducation = "parental level of education"
	ColumnLunch             = "lunch"
	ColumnTestPreparation   = "test preparation course"
)

// CategoricalColumns lists the encoded columns; the three scores follow them
// in the feature vector.
var CategoricalColumns = []string{
	ColumnGender,
	ColumnRaceEthnicity,
	ColumnParentalEducation,
	ColumnLunch,
	ColumnTestPreparation,
}

// UnknownCategory is the code used for a category the model never saw.
const UnknownCategory = 0

var (
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrInvalidArtifact  = errors.New("invalid model artifact")
)

// Classifier is the capability the inference path consumes.
type Classifier interface {
	// Classify returns the predicted label and the probability of every class.
	Classify(vector []float64) (label string, probabilities map[string]float64, err error)
	// Encode maps a categorical value to the code used during training,
	// returning UnknownCategory for unseen values.
	Encode(column, value string) int
}

// Confidence is the maximum class probability.
func Confidence(probabilities map[string]float64) float64 {
	var best float64
	for _, p := range probabilities {
		if p > best {
			best = p
		}
	}
	return best
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArtifact, fmt.Sprintf(format, args...))
}

package classifier

import (
	"math"
	"math/rand"

	"github.com/crimson-sun/murmur/internal/model"
)

// Split partitions X and y into train and test sets using a seeded random
// permutation. The split is reproducible for a given seed but is not
// stratified: a small test set may miss some classes entirely.
func Split(X []model.FeatureVector, y []model.Label, testFraction float64, seed int64) (
	trainX []model.FeatureVector, testX []model.FeatureVector, trainY []model.Label, testY []model.Label,
) {
	n := len(X)
	nTest := int(math.Ceil(float64(n) * testFraction))
	if testFraction <= 0 || n < 2 {
		nTest = 0
	}
	if nTest >= n {
		nTest = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	for i, p := range perm {
		if i < nTest {
			testX = append(testX, X[p])
			testY = append(testY, y[p])
		} else {
			trainX = append(trainX, X[p])
			trainY = append(trainY, y[p])
		}
	}
	return trainX, testX, trainY, testY
}

// Accuracy returns the fraction of predictions equal to truth, or 0 for
// empty input.
func Accuracy(pred, truth []model.Label) float64 {
	if len(truth) == 0 || len(pred) != len(truth) {
		return 0
	}
	var hit int
	for i := range truth {
		if pred[i] == truth[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}

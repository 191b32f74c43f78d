// Package crossval provides the fold assignment consumed by the binning
// search and by out-of-fold WoE encoding. A fold assignment is a plain
// []int mapping sample index to fold id, which keeps the downstream
// contracts free of splitter types.
package crossval

import (
	"math/rand/v2"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

// Fold holds the train/test index sets of a single cross-validation fold.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits samples into k consecutive (optionally shuffled) folds.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a k-fold splitter. Fewer than 2 splits falls back to 5.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// Split generates train/test indices for each fold over n samples.
func (kf *KFold) Split(n int) []Fold {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		test := make([]int, testSize)
		copy(test, indices[current:current+testSize])

		inTest := make(map[int]bool, testSize)
		for _, idx := range test {
			inTest[idx] = true
		}
		train := make([]int, 0, n-testSize)
		for j := 0; j < n; j++ {
			if !inTest[j] {
				train = append(train, j)
			}
		}

		folds[i] = Fold{TrainIndices: train, TestIndices: test}
		current += testSize
	}

	return folds
}

// StratifiedKFold splits samples so each fold preserves the target's class
// proportions. This is the default splitter for scorecard fitting, where
// positives are often rare.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// Split generates stratified train/test indices for each fold.
func (skf *StratifiedKFold) Split(y []float64) []Fold {
	n := len(y)

	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		classIndices[y[i]] = append(classIndices[y[i]], i)
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for label := range classIndices {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.NSplits)

	// Distribute each class across folds round by round.
	for _, indices := range classIndices {
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		current := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && current < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[current])
				current++
			}
		}
	}

	for i := 0; i < skf.NSplits; i++ {
		inTest := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			inTest[idx] = true
		}
		for j := 0; j < n; j++ {
			if !inTest[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds
}

// Assignment converts folds into a per-sample fold id slice. Every sample
// must appear in exactly one fold's test set.
func Assignment(folds []Fold, n int) ([]int, error) {
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for f, fold := range folds {
		for _, idx := range fold.TestIndices {
			if idx < 0 || idx >= n {
				return nil, wbErrors.NewValueError("Assignment", "test index out of range")
			}
			if assign[idx] != -1 {
				return nil, wbErrors.NewValueError("Assignment", "sample assigned to multiple folds")
			}
			assign[idx] = f
		}
	}
	for i, f := range assign {
		if f == -1 {
			return nil, wbErrors.NewValidationError("folds", "sample missing from every fold", i)
		}
	}
	return assign, nil
}

// FoldsFromAssignment rebuilds train/test index sets from a per-sample fold
// id slice supplied by an external splitter.
func FoldsFromAssignment(assign []int) []Fold {
	maxFold := -1
	for _, f := range assign {
		if f > maxFold {
			maxFold = f
		}
	}
	if maxFold < 0 {
		return nil
	}

	folds := make([]Fold, maxFold+1)
	for i, f := range assign {
		folds[f].TestIndices = append(folds[f].TestIndices, i)
		for other := range folds {
			if other != f {
				folds[other].TrainIndices = append(folds[other].TrainIndices, i)
			}
		}
	}
	return folds
}

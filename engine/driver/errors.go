package driver

import "errors"

// ErrNoAlgorithm is returned by Frame before an algorithm has been selected.
var ErrNoAlgorithm = errors.New("driver: no algorithm selected")

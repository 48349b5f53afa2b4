// Package opencv is an alternative engine backed by OpenCV through gocv.
//
// It implements the same rectify and enhance contracts as the native packages and
// reuses rectify.Finish, so the inward offset, fallbacks and effectiveness are
// identical between engines. Only the pixel work differs.
//
// The engine is compiled only with the gocv build tag:
//
//	go build -tags gocv ./...
//
// Without the tag New returns ErrUnavailable.
package opencv

import "errors"

// ErrUnavailable is returned by New when the binary was built without OpenCV.
var ErrUnavailable = errors.New("opencv engine not available (build with -tags gocv)")

// Name is the engine name used in configuration.
const Name = "opencv"

package storage

import "errors"

var ErrInvalidPath = errors.New("artifact path is empty")

package stats

import "errors"

var ErrRecordNotFound = errors.New("stats record not found")

package filter

import "errors"

var ErrArgument = errors.New("filter: invalid argument")
var ErrFormat = errors.New("filter: bad format")

package models

import "errors"

// ErrDuplicate is returned by repositories when a unique key is violated
var ErrDuplicate = errors.New("duplicate entry")

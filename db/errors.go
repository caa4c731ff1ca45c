package db

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("record already exists")
)

func IgnoreErrNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

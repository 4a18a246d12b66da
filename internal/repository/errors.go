package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrCorrupted: точечный UPDATE/DELETE задел больше одной строки.
	// Это сигнал о повреждении данных, не путать с "не найдено".
	ErrCorrupted = errors.New("database corrupted: more than one row affected")
)

func checkOneRow(affected int64) error {
	if affected == 0 {
		return ErrNotFound
	}
	if affected > 1 {
		return ErrCorrupted
	}
	return nil
}

package service

import (
	"errors"
	"fmt"
)

var (
	ErrGiftNotFound = errors.New("gift not found")
	// ErrOrderSettled is returned for a reference whose transaction is
	// already paid or failed; a new invoice could never be reconciled.
	ErrOrderSettled = errors.New("order already settled")
	ErrAlreadyPaid  = fmt.Errorf("%w: paid", ErrOrderSettled)
)

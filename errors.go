package pcidb

import (
	"errors"
	"github.com/jordanwade90/pcidb/internal/strpool"
)

var (
	// ErrIdentifierOutOfRange indicates an identifier wider than its table's id fields.
	ErrIdentifierOutOfRange = errors.New("identifier out of range")

	// ErrNameTooLong indicates a name longer than the string pool format can store.
	ErrNameTooLong = strpool.ErrNameTooLong

	// ErrInvalidName indicates a name the string pool format cannot represent.
	ErrInvalidName = strpool.ErrInvalidName

	// ErrCorrupt indicates a database that does not follow the binary layout.
	ErrCorrupt = errors.New("corrupt database")
)

package sheets

import (
	"context"
	"errors"

	"smartspend/internal/core"
)

// ErrRowNotFound is returned when no row carries the requested expense id.
var ErrRowNotFound = errors.New("row not found")

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	ExpenseDeleter interface {
		// DeleteByID removes the row holding the expense id.
		DeleteByID(ctx context.Context, id string) error
	}

	// Exporter mirrors expense changes into a spreadsheet.
	Exporter interface {
		ExpenseWriter
		ExpenseDeleter
	}
)

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

// maxStaleRetries bounds reload-and-retry loops on optimistic version conflicts.
const maxStaleRetries = 3

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// lookupError maps a repository read failure onto NOT_FOUND or INTERNAL_ERROR.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

func isStale(err error) bool {
	return errors.Is(err, appErrors.ErrStaleWrite)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

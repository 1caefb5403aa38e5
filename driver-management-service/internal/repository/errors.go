package repository

import (
	"errors"
	"fmt"

	"fleet-app/driver-management-service/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// translate maps driver errors onto the domain sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %s not found", models.ErrNotFound, what)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s already exists", models.ErrConflict, what)
	default:
		return err
	}
}

// Package service provides the application logic behind the HTTP API: media uploads,
// feeds, posts, comments, conversations and the social graph.
package service

import (
	"errors"

	"encore/internal/models"
	"encore/internal/repository"
)

// appError passes *models.AppError through and wraps anything else as internal.
func appError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// notFoundOr translates gorm.ErrRecordNotFound into a NotFound for resource.
func notFoundOr(err error, resource string, id any) error {
	if repository.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return appError(err)
}

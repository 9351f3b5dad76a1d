package service

import (
	"errors"

	"lesson-content-service/repository"
)

func errValidation(msg string) error {
	return errors.Join(repository.ErrValidation, errors.New(msg))
}

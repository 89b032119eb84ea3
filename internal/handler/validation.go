package handler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"loyaltydesk/backoffice/pkg/dates"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidations installs the custom tags used by request DTOs on gin's validator.
func RegisterValidations() error {
	registerOnce.Do(func() {
		registerErr = registerTags(binding.Validator.Engine())
	})
	return registerErr
}

func registerTags(engine interface{}) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return errors.New("binding validator is not go-playground/validator")
	}
	if err := v.RegisterValidation("isodate", isoDate); err != nil {
		return fmt.Errorf("failed to register isodate: %w", err)
	}
	return nil
}

// isoDate accepts YYYY-MM-DD calendar dates.
func isoDate(fl validator.FieldLevel) bool {
	_, err := dates.Parse(fl.Field().String())
	return err == nil
}

package validation

import (
	"fmt"
	"time"

	errors "github.com/frahmantamala/reservation-management/internal"
	"github.com/shopspring/decimal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case int64:
			if v == 0 {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || *v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

// NonNegative rejects negative ints and negative decimals. Used for
// occupancy counts, service quantities and unit prices.
func (fv *FieldValidator) NonNegative(code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case int:
			if v < 0 {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must not be negative", fv.FieldName), code)
			}
		case int64:
			if v < 0 {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must not be negative", fv.FieldName), code)
			}
		case decimal.Decimal:
			if v.IsNegative() {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must not be negative", fv.FieldName), code)
			}
		}
		return nil
	})
	return fv
}

// PercentRange enforces the commission percentage window.
func (fv *FieldValidator) PercentRange(min, max float64) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		var pct float64
		switch v := value.(type) {
		case float64:
			pct = v
		case decimal.Decimal:
			pct, _ = v.Float64()
		default:
			return nil
		}
		if pct < min || pct > max {
			message := fmt.Sprintf("%s must be between %g and %g", fv.FieldName, min, max)
			return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeInvalidPercent)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MonthRange() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(int); ok {
			if v < 1 || v > 12 {
				return errors.NewValidationFieldError(fv.FieldName, "month must be between 1 and 12", errors.ErrCodeInvalidPeriod)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			if err := validator(field.Value); err != nil {
				if appErr, ok := errors.IsAppError(err); ok {
					if details, ok := appErr.Details.(errors.ValidationErrors); ok {
						validationErrors = append(validationErrors, details.Errors...)
					} else {
						validationErrors = append(validationErrors, errors.ValidationError{
							Field:   field.FieldName,
							Message: appErr.Message,
							Code:    string(appErr.Code),
						})
					}
				}
			}
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// ValidateStayDates enforces check_in < check_out.
func ValidateStayDates(checkIn, checkOut time.Time) *errors.AppError {
	if checkIn.IsZero() || checkOut.IsZero() {
		return errors.NewValidationFieldError("check_in", "check-in and check-out are required", errors.ErrCodeInvalidDateRange)
	}
	if !checkIn.Before(checkOut) {
		return errors.NewValidationFieldError("check_in", "check-in must be before check-out", errors.ErrCodeInvalidDateRange)
	}
	return nil
}

// ValidateCommissionPercentage enforces the 0..50 policy window.
func ValidateCommissionPercentage(pct decimal.Decimal) *errors.AppError {
	validator := NewValidator()
	validator.Field("commission_percentage", pct).
		PercentRange(0, 50)
	return validator.Validate()
}

// ValidatePayoutPeriod checks a (month, year) pair for payout runs.
func ValidatePayoutPeriod(month, year int) *errors.AppError {
	validator := NewValidator()
	validator.Field("month", month).MonthRange()
	validator.Field("year", year).Custom(func(value interface{}) *errors.AppError {
		if v, ok := value.(int); ok {
			if v < 2000 || v > 2200 {
				return errors.NewValidationFieldError("year", "year is out of range", errors.ErrCodeInvalidPeriod)
			}
		}
		return nil
	})
	return validator.Validate()
}

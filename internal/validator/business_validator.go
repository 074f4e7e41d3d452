package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/studyforge/practice-service/internal/models"
)

// ValidationError describes a single failed rule on one field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ToValidationErrors converts go-playground validator output into the
// API error shape.
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var errs ValidationErrors
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			errs = append(errs, ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Message: messageForTag(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return errs
	}

	return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "task_kind":
		return "must be one of: open, closed"
	case "practice_mode":
		return "must be one of: standard, games"
	case "points_range":
		return "must be between 1 and 100"
	default:
		return fmt.Sprintf("failed rule %s", fe.Tag())
	}
}

// Validator bundles struct-tag validation with the business validator.
// Services hold one instance and share it; it is safe for concurrent
// use.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	bv := NewBusinessValidator()
	return &Validator{
		validate: bv.validate,
		business: bv,
	}
}

// Validate runs struct-tag validation and returns ValidationErrors on
// failure, nil otherwise.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateTaskCreate validates task creation business rules
func (bv *BusinessValidator) ValidateTaskCreate(req *TaskCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Task-specific business validations
	errors = append(errors, bv.validateTaskBusinessRules(req)...)

	return errors
}

// ValidateExamCreate validates exam creation business rules
func (bv *BusinessValidator) ValidateExamCreate(req *ExamCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Duplicate task references would corrupt ordered scoring
	seen := make(map[uint]bool, len(req.TaskIDs))
	for i, id := range req.TaskIDs {
		if seen[id] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("task_ids[%d]", i),
				Message: "task is referenced more than once",
				Value:   id,
				Rule:    "business_logic",
			})
		}
		seen[id] = true
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Task kind validation
	bv.validate.RegisterValidation("task_kind", func(fl validator.FieldLevel) bool {
		return models.TaskKind(fl.Field().String()).Valid()
	})

	// Practice mode validation
	bv.validate.RegisterValidation("practice_mode", func(fl validator.FieldLevel) bool {
		return models.PracticeMode(fl.Field().String()).Valid()
	})

	// Points range validation (1-100)
	bv.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})

	// Leaderboard kind validation
	bv.validate.RegisterValidation("leaderboard_kind", func(fl validator.FieldLevel) bool {
		kind := fl.Field().String()
		return kind == "all" || models.TaskKind(kind).Valid()
	})
}

// validateTaskBusinessRules validates business rules for task creation
func (bv *BusinessValidator) validateTaskBusinessRules(req *TaskCreateRequest) ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(req.CorrectAnswer) == "" {
		errors = append(errors, ValidationError{
			Field:   "correct_answer",
			Message: "cannot be blank",
			Value:   req.CorrectAnswer,
			Rule:    "business_logic",
		})
	}

	switch req.Kind {
	case models.TaskKindClosed:
		// Closed tasks are answered by picking an option
		if len(req.Options) < 2 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "closed tasks need at least 2 options",
				Value:   len(req.Options),
				Rule:    "business_logic",
			})
		}
		found := false
		for _, opt := range req.Options {
			if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(req.CorrectAnswer)) {
				found = true
				break
			}
		}
		if len(req.Options) > 0 && !found {
			errors = append(errors, ValidationError{
				Field:   "correct_answer",
				Message: "must match one of the options",
				Value:   req.CorrectAnswer,
				Rule:    "business_logic",
			})
		}
	case models.TaskKindOpen:
		if len(req.Options) > 0 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "open tasks cannot have options",
				Value:   len(req.Options),
				Rule:    "business_logic",
			})
		}
	}

	for i, opt := range req.Options {
		if strings.TrimSpace(opt) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("options[%d]", i),
				Message: "option cannot be empty",
				Value:   opt,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

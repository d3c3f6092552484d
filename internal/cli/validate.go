package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/txstore/internal/catalog"
	"github.com/roach88/txstore/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                     `json:"valid"`
	Namespace string                   `json:"namespace,omitempty"`
	Types     int                      `json:"types"`
	Sets      int                      `json:"sets"`
	Errors    []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema-dir]",
		Short: "Validate a CUE entity schema",
		Long: `Validate a CUE entity schema: entity types, keys, navigations,
entity sets and their navigation bindings.

Without an argument the built-in catalog schema is validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if len(args) == 0 {
				return runValidateBuiltin(formatter)
			}
			return runValidate(formatter, args[0])
		},
	}

	return cmd
}

func runValidate(formatter *OutputFormatter, dir string) error {
	loadResult, loadErrors := schema.Load(dir)

	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *schema.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, schema.ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	var validationErrors []schema.ValidationError
	for _, err := range loadErrors {
		var verr schema.ValidationError
		if errors.As(err, &verr) {
			validationErrors = append(validationErrors, verr)
			continue
		}
		validationErrors = append(validationErrors, schema.ValidationError{
			Field:   "load",
			Message: err.Error(),
			Code:    schema.ErrCodeGeneric,
		})
	}

	return report(formatter, loadResult.Schema, validationErrors)
}

func runValidateBuiltin(formatter *OutputFormatter) error {
	s, err := schema.CompileString(catalog.SchemaSource())
	if err != nil {
		return outputValidateError(formatter, schema.ErrCodeCompile, err.Error(), nil)
	}
	formatter.VerboseLog("Validating built-in catalog schema")
	return report(formatter, s, schema.Validate(s))
}

func report(formatter *OutputFormatter, s *schema.Schema, errs []schema.ValidationError) error {
	for _, et := range s.Types {
		formatter.VerboseLog("Entity type: %s (%d properties, %d navigations)", et.Name, len(et.Properties), len(et.Navigation))
	}
	for _, es := range s.Sets {
		formatter.VerboseLog("Entity set: %s of %s", es.Name, es.Type)
	}

	if len(s.Sets) == 0 && len(errs) == 0 {
		errs = append(errs, schema.ValidationError{
			Field:   "sets",
			Message: "no entity sets declared",
			Code:    schema.ErrCodeGeneric,
		})
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	return outputValidateSuccess(formatter, s)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, s *schema.Schema) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:     true,
			Namespace: s.Namespace,
			Types:     len(s.Types),
			Sets:      len(s.Sets),
		})
	}

	fmt.Fprintf(formatter.Writer, "\u2713 Schema valid (%d entity types, %d entity sets)\n", len(s.Types), len(s.Sets))
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []schema.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "\u2717 Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

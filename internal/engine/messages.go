package engine

import (
	"errors"
	"fmt"

	"github.com/crimson-sun/murmur/internal/model"
)

// UserMessage maps an engine error to a message suitable for end users.
// Unknown errors get a generic message; details belong in the logs.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		insufficient *model.InsufficientDataError
		dimension    *model.DimensionMismatchError
		unsupported  *model.UnsupportedModelError
		invalidK     *model.InvalidKError
		cfgErr       *model.ConfigError
	)
	switch {
	case errors.Is(err, model.ErrEmptyCorpus):
		return "No usable posts were found for this keyword."
	case errors.Is(err, model.ErrNotFitted):
		return "The model has not been trained yet."
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Training needs at least two labeled examples from two different labels (got %d examples, %d labels).",
			insufficient.Samples, insufficient.Classes)
	case errors.As(err, &dimension):
		return "The input does not match the trained feature space; retrain the model."
	case errors.As(err, &unsupported):
		return fmt.Sprintf("The %s model does not support %s.", unsupported.Family, unsupported.Operation)
	case errors.As(err, &invalidK):
		return fmt.Sprintf("Cannot form %d groups from %d posts.", invalidK.K, invalidK.N)
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("Invalid setting %s: %s.", cfgErr.Field, cfgErr.Reason)
	default:
		return unexpectedMessage
	}
}

const unexpectedMessage = "The analysis failed unexpectedly."

// IsUserError reports whether err belongs to the engine's error taxonomy,
// i.e. it was caused by the input or configuration rather than a fault.
func IsUserError(err error) bool {
	return err != nil && UserMessage(err) != unexpectedMessage
}

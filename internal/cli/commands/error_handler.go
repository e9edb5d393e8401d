package commands

import (
	"fmt"
	"strings"

	"devmanager/internal/errors"
	"devmanager/internal/logger"
)

// Exit codes
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsConfigurationError(err):
		return ExitConfigError
	default:
		return ExitFailure
	}
}

// HandleError processes errors and provides user-friendly output
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	logger.WithError(err).Debug("Command failed")

	switch errors.GetCode(err) {
	case errors.ErrConfigNotFound:
		return fmt.Errorf("%v\n\nTip: Create a services document or point --config (or DEVMANAGER_CONFIG) at one.", err)
	case errors.ErrConfigParse, errors.ErrConfigValidation, errors.ErrConfigInvalid:
		return fmt.Errorf("%v\n\nTip: Run 'devmanager validate' after fixing the file.", err)
	case errors.ErrServiceNotFound:
		return fmt.Errorf("%v\n\nTip: Use 'devmanager status' to see available services.", err)
	case errors.ErrCommandFailed:
		if dev, ok := errors.As(err); ok {
			if output, _ := dev.Context["output"].(string); strings.TrimSpace(output) != "" {
				return fmt.Errorf("%v\n\n%s", err, strings.TrimSpace(output))
			}
		}
		return err
	}

	if strings.Contains(err.Error(), "permission denied") {
		return fmt.Errorf("%v\n\nTip: Check the permissions of the configured command or file.", err)
	}
	return err
}

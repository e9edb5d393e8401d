package probe

import (
	"context"
	"regexp"

	"devmanager/internal/config"
	"devmanager/internal/logger"
	"devmanager/internal/types"
)

func (p *Prober) probeProcess(ctx context.Context, v config.ProcessProbe) types.ServiceStatus {
	if v.Command == "" {
		return types.NewStatus(types.IconUnknown, DescNoStatusCommand)
	}

	result, err := p.executor.Run(ctx, v.Command, v.Timeout)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Debug("Status command failed to run")
		return types.NewStatus(types.IconFailed, DescStatusCheckFailed)
	}
	if !result.Success() {
		return types.NewStatus(types.IconStopped, DescStopped)
	}

	if v.ExpectedPattern != "" {
		re, err := regexp.Compile("(?i)" + v.ExpectedPattern)
		if err != nil || !re.MatchString(result.Output) {
			return types.NewStatus(types.IconDegraded, DescUnexpectedOutput)
		}
	}
	return types.NewStatus(types.IconHealthy, DescRunning)
}

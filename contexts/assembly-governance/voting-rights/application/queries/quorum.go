package queries

import (
	"context"
	"log/slog"
	"strings"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/domain/services"
	"assembly/contexts/assembly-governance/voting-rights/ports"
)

type QuorumUseCase struct {
	Units      ports.UnitStore
	Attendance ports.AttendanceStore
	Cache      *QuorumCache
	Metrics    ports.Metrics
	Logger     *slog.Logger
}

// GetQuorum derives quorum from the unit roll and attendance. The cache is
// only a read-through shortcut.
func (uc QuorumUseCase) GetQuorum(ctx context.Context, assemblyID string) (services.Quorum, error) {
	assemblyID = strings.TrimSpace(assemblyID)
	if assemblyID == "" {
		return services.Quorum{}, domainerrors.ErrInvalidInput
	}
	return uc.Cache.Get(ctx, assemblyID, func(ctx context.Context) (services.Quorum, error) {
		return uc.compute(ctx, assemblyID)
	})
}

func (uc QuorumUseCase) compute(ctx context.Context, assemblyID string) (services.Quorum, error) {
	logger := application.ResolveLogger(uc.Logger)
	units, err := uc.Units.ListUnitsByAssembly(ctx, assemblyID)
	if err != nil {
		return services.Quorum{}, err
	}
	logs, err := uc.Attendance.ListAttendanceByAssembly(ctx, assemblyID)
	if err != nil {
		return services.Quorum{}, err
	}
	present := make(map[string]bool, len(logs))
	for _, log := range logs {
		present[log.UnitID] = true
	}
	quorum := services.ComputeQuorum(assemblyID, units, present)
	if len(units) > 0 && !quorum.BalancedTotal() {
		logger.Warn("assembly coefficients do not sum to one",
			"event", "voting_rights_coefficient_total_unbalanced",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"assembly_id", assemblyID,
			"total_coefficient", quorum.TotalCoefficient.String(),
		)
	}
	percentage, _ := quorum.Percentage.Float64()
	application.ResolveMetrics(uc.Metrics).QuorumObserved(assemblyID, percentage)
	logger.Debug("quorum computed",
		"event", "voting_rights_quorum_computed",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"assembly_id", assemblyID,
		"percentage", quorum.Percentage.String(),
	)
	return quorum, nil
}

package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"
)

// QuorumInvalidator drops a cached quorum after attendance changes.
type QuorumInvalidator interface {
	Invalidate(assemblyID string)
}

type ToggleAttendanceCommand struct {
	ActorID string
	UnitID  string
}

type ToggleAttendanceResult struct {
	UnitID     string
	AssemblyID string
	Present    bool
	ToggledAt  time.Time
}

type AttendanceUseCase struct {
	Repo   ports.Repository
	Quorum QuorumInvalidator
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// ToggleAttendance flips a unit between present and absent. Only operators
// and admins run the check-in desk.
func (uc AttendanceUseCase) ToggleAttendance(ctx context.Context, cmd ToggleAttendanceCommand) (ToggleAttendanceResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor, err := requireElevated(ctx, uc.Repo, cmd.ActorID)
	if err != nil {
		return ToggleAttendanceResult{}, err
	}

	var result ToggleAttendanceResult
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		unit, err := tx.GetUnit(ctx, strings.TrimSpace(cmd.UnitID))
		if err != nil {
			return err
		}
		_, present, err := tx.GetAttendance(ctx, unit.UnitID)
		if err != nil {
			return err
		}
		now := uc.now()
		if present {
			if _, err := tx.CheckOut(ctx, unit.UnitID); err != nil {
				return err
			}
		} else {
			if _, err := tx.CheckIn(ctx, entities.AttendanceLog{
				UnitID:      unit.UnitID,
				AssemblyID:  unit.AssemblyID,
				CheckedInAt: now,
				CheckedInBy: actor.IdentityID,
			}); err != nil {
				return err
			}
		}
		result = ToggleAttendanceResult{
			UnitID:     unit.UnitID,
			AssemblyID: unit.AssemblyID,
			Present:    !present,
			ToggledAt:  now,
		}
		return appendEvent(ctx, tx, uc.IDGen, contractsv1.EventAttendanceToggled, "assembly_id", unit.AssemblyID, now, map[string]any{
			"unit_id":     unit.UnitID,
			"assembly_id": unit.AssemblyID,
			"present":     result.Present,
			"toggled_by":  actor.IdentityID,
		})
	})
	if err != nil {
		return ToggleAttendanceResult{}, err
	}
	if uc.Quorum != nil {
		uc.Quorum.Invalidate(result.AssemblyID)
	}
	logger.Info("attendance toggled",
		"event", "voting_rights_attendance_toggled",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"unit_id", result.UnitID,
		"assembly_id", result.AssemblyID,
		"present", result.Present,
		"actor_id", actor.IdentityID,
	)
	return result, nil
}

func (uc AttendanceUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

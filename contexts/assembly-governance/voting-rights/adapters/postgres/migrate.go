package postgresadapter

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// approvedProxyIndex keeps at most one APPROVED proxy per principal. Both
// Postgres and SQLite accept partial unique indexes.
const approvedProxyIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_proxies_principal_approved
	ON proxies (principal_id) WHERE status = 'APPROVED'`

// Migrate creates or updates the voting-rights schema. Votes are migrated
// before options and ballots so their foreign keys resolve.
func Migrate(ctx context.Context, db *gorm.DB) error {
	models := []any{
		&unitModel{},
		&accountModel{},
		&identityModel{},
		&proxyModel{},
		&signatureModel{},
		&voteModel{},
		&voteOptionModel{},
		&ballotModel{},
		&attendanceModel{},
		&outboxModel{},
		&eventDedupModel{},
	}
	for _, model := range models {
		if err := db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("auto-migrate %T: %w", model, err)
		}
	}
	if err := db.WithContext(ctx).Exec(approvedProxyIndex).Error; err != nil {
		return fmt.Errorf("create approved proxy index: %w", err)
	}
	return nil
}

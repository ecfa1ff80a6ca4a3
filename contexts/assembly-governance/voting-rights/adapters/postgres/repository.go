package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements every voting-rights store port on gorm. It runs on
// Postgres in production and on SQLite for tests and single-node dev mode.
type Repository struct {
	db     *gorm.DB
	clock  ports.Clock
	logger *slog.Logger
}

// NewRepository falls back to SystemClock when clock is nil.
func NewRepository(db *gorm.DB, clock ports.Clock, logger *slog.Logger) *Repository {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		clock:  clock,
		logger: logger,
	}
}

// WithinTx hands fn a repository bound to one database transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, clock: r.clock, logger: r.logger})
	})
}

func (r *Repository) GetUnit(ctx context.Context, unitID string) (entities.Unit, error) {
	var row unitModel
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", strings.TrimSpace(unitID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Unit{}, domainerrors.ErrUnitNotFound
		}
		return entities.Unit{}, r.logError("voting_rights_repo_get_unit_failed", err, "unit_id", strings.TrimSpace(unitID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListUnitsByAssembly(ctx context.Context, assemblyID string) ([]entities.Unit, error) {
	var rows []unitModel
	if err := r.db.WithContext(ctx).
		Where("assembly_id = ?", strings.TrimSpace(assemblyID)).
		Order("unit_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_rights_repo_list_units_failed", err, "assembly_id", strings.TrimSpace(assemblyID))
	}
	return toUnitEntities(rows), nil
}

func (r *Repository) ListUnitsByOwner(ctx context.Context, owner entities.DocumentID) ([]entities.Unit, error) {
	var rows []unitModel
	if err := r.db.WithContext(ctx).
		Where("owner_document_id = ?", owner.String()).
		Order("assembly_id ASC, unit_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_rights_repo_list_units_by_owner_failed", err)
	}
	return toUnitEntities(rows), nil
}

func (r *Repository) ListUnitsByRepresentative(
	ctx context.Context,
	assemblyID string,
	identityID string,
) ([]entities.Unit, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, nil
	}
	var rows []unitModel
	if err := r.db.WithContext(ctx).
		Where("assembly_id = ?", strings.TrimSpace(assemblyID)).
		Where("current_representative_id = ?", strings.TrimSpace(identityID)).
		Order("unit_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_rights_repo_list_units_by_representative_failed", err,
			"assembly_id", strings.TrimSpace(assemblyID),
			"identity_id", strings.TrimSpace(identityID),
		)
	}
	return toUnitEntities(rows), nil
}

// TransferRepresentation is scoped by owner document so a transfer never
// touches units outside the owner's holdings.
func (r *Repository) TransferRepresentation(
	ctx context.Context,
	owner entities.DocumentID,
	fromIdentityID string,
	toIdentityID string,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&unitModel{}).
		Where("owner_document_id = ?", owner.String()).
		Where("current_representative_id = ?", strings.TrimSpace(fromIdentityID)).
		Update("current_representative_id", strings.TrimSpace(toIdentityID))
	if result.Error != nil {
		return 0, r.logError("voting_rights_repo_transfer_representation_failed", result.Error,
			"from_identity_id", strings.TrimSpace(fromIdentityID),
			"to_identity_id", strings.TrimSpace(toIdentityID),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) GetIdentity(ctx context.Context, identityID string) (entities.Identity, error) {
	var row identityModel
	err := r.db.WithContext(ctx).
		Where("identity_id = ?", strings.TrimSpace(identityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Identity{}, domainerrors.ErrIdentityNotFound
		}
		return entities.Identity{}, r.logError("voting_rights_repo_get_identity_failed", err,
			"identity_id", strings.TrimSpace(identityID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) FindIdentityByDocument(ctx context.Context, document entities.DocumentID) (entities.Identity, bool, error) {
	if document.IsZero() {
		return entities.Identity{}, false, nil
	}
	var row identityModel
	err := r.db.WithContext(ctx).
		Where("document_id = ?", document.String()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Identity{}, false, nil
		}
		return entities.Identity{}, false, r.logError("voting_rights_repo_find_identity_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetAccount(ctx context.Context, accountID string) (entities.Account, bool, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("account_id = ?", strings.TrimSpace(accountID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, false, nil
		}
		return entities.Account{}, false, r.logError("voting_rights_repo_get_account_failed", err,
			"account_id", strings.TrimSpace(accountID),
		)
	}
	return entities.Account{
		AccountID: row.AccountID,
		Handle:    row.Handle,
		CreatedAt: row.CreatedAt.UTC(),
	}, true, nil
}

// CreateAccount inserts unless the id or handle already exists.
func (r *Repository) CreateAccount(ctx context.Context, account entities.Account) (bool, error) {
	row := accountModel{
		AccountID: strings.TrimSpace(account.AccountID),
		Handle:    strings.TrimSpace(account.Handle),
		CreatedAt: account.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = r.now()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if create.Error != nil {
		return false, r.logError("voting_rights_repo_create_account_failed", create.Error,
			"account_id", row.AccountID,
		)
	}
	return create.RowsAffected > 0, nil
}

// CreateIdentity inserts unless the id or document already exists.
func (r *Repository) CreateIdentity(ctx context.Context, identity entities.Identity) (bool, error) {
	row := identityModelFromEntity(identity)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if create.Error != nil {
		return false, r.logError("voting_rights_repo_create_identity_failed", create.Error,
			"identity_id", row.IdentityID,
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) CreateProxy(ctx context.Context, proxy entities.Proxy) error {
	row := proxyModelFromEntity(proxy)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			if proxy.Status == entities.ProxyStatusApproved {
				return domainerrors.ErrDuplicateApproval
			}
			return domainerrors.ErrConflict
		}
		return r.logError("voting_rights_repo_create_proxy_failed", err, "proxy_id", row.ProxyID)
	}
	return nil
}

func (r *Repository) GetProxy(ctx context.Context, proxyID string) (entities.Proxy, error) {
	var row proxyModel
	err := r.db.WithContext(ctx).
		Where("proxy_id = ?", strings.TrimSpace(proxyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proxy{}, domainerrors.ErrProxyNotFound
		}
		return entities.Proxy{}, r.logError("voting_rights_repo_get_proxy_failed", err, "proxy_id", strings.TrimSpace(proxyID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListProxiesByPrincipal(
	ctx context.Context,
	principalID string,
	status entities.ProxyStatus,
) ([]entities.Proxy, error) {
	tx := r.db.WithContext(ctx).Model(&proxyModel{}).
		Where("principal_id = ?", strings.TrimSpace(principalID))
	if status != "" {
		tx = tx.Where("status = ?", string(status))
	}
	var rows []proxyModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("voting_rights_repo_list_proxies_failed", err,
			"principal_id", strings.TrimSpace(principalID),
		)
	}
	items := make([]entities.Proxy, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// TransitionProxy only updates a row still in from. The partial unique
// index on APPROVED rows turns a second approval into ErrDuplicateApproval.
func (r *Repository) TransitionProxy(
	ctx context.Context,
	proxyID string,
	from entities.ProxyStatus,
	to entities.ProxyStatus,
	updatedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&proxyModel{}).
		Where("proxy_id = ? AND status = ?", strings.TrimSpace(proxyID), string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrDuplicateApproval
		}
		return r.logError("voting_rights_repo_transition_proxy_failed", result.Error,
			"proxy_id", strings.TrimSpace(proxyID),
			"from_status", string(from),
			"to_status", string(to),
		)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetProxy(ctx, proxyID); err != nil {
			return err
		}
		return domainerrors.ErrAlreadyProcessed
	}
	return nil
}

func (r *Repository) SetProxyRepresentative(
	ctx context.Context,
	proxyID string,
	representativeID string,
	updatedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&proxyModel{}).
		Where("proxy_id = ?", strings.TrimSpace(proxyID)).
		Updates(map[string]any{
			"representative_id": strings.TrimSpace(representativeID),
			"updated_at":        updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_rights_repo_set_proxy_representative_failed", result.Error,
			"proxy_id", strings.TrimSpace(proxyID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProxyNotFound
	}
	return nil
}

func (r *Repository) DeletePendingProxy(ctx context.Context, proxyID string) error {
	err := r.db.WithContext(ctx).
		Where("proxy_id = ? AND status = ?", strings.TrimSpace(proxyID), string(entities.ProxyStatusPending)).
		Delete(&proxyModel{}).
		Error
	if err != nil {
		return r.logError("voting_rights_repo_delete_pending_proxy_failed", err, "proxy_id", strings.TrimSpace(proxyID))
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "assembly-governance/voting-rights",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("voting rights repository operation failed", fields...)
	return err
}

func (r *Repository) now() time.Time {
	return r.clock.Now().UTC()
}

func toUnitEntities(rows []unitModel) []entities.Unit {
	items := make([]entities.Unit, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)

package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrSettingsNotFound indicates no global settings row exists.
	ErrSettingsNotFound = errors.New("settings: gl settings not configured")
	// ErrProjectSettingsNotFound indicates no per-project override row.
	ErrProjectSettingsNotFound = errors.New("settings: project gl settings not found")
)

// Repository encapsulates DB operations for ledger settings.
type Repository interface {
	GetGlobal(ctx context.Context) (GLSettings, error)
	GetForProject(ctx context.Context, projectID int64) (ProjectGLSettings, error)
	GetWIPSetting(ctx context.Context, key string) (WIPReportSetting, error)
	UpsertWIPSetting(ctx context.Context, key, value string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetGlobal(ctx context.Context) (GLSettings, error) {
	var s GLSettings
	err := r.db.QueryRow(ctx, `
SELECT id, ap_invoice_integration_method, ar_invoice_integration_method, labor_cost_integration_method,
       accounts_payable_account_id, accounts_receivable_account_id,
       retainage_payable_account_id, retainage_receivable_account_id,
       wages_payable_account_id, revenue_account_id, revenue_clearing_account_id,
       cost_in_excess_account_id, billing_in_excess_account_id,
       created_at, updated_at
FROM gl_settings ORDER BY id ASC LIMIT 1`).
		Scan(&s.ID, &s.APInvoiceIntegrationMethod, &s.ARInvoiceIntegrationMethod, &s.LaborCostIntegrationMethod,
			&s.AccountsPayableAccountID, &s.AccountsReceivableAccountID,
			&s.RetainagePayableAccountID, &s.RetainageReceivableAccountID,
			&s.WagesPayableAccountID, &s.RevenueAccountID, &s.RevenueClearingAccountID,
			&s.CostInExcessAccountID, &s.BillingInExcessAccountID,
			&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return GLSettings{}, ErrSettingsNotFound
		}
		return GLSettings{}, err
	}
	return s, nil
}

func (r *repository) GetForProject(ctx context.Context, projectID int64) (ProjectGLSettings, error) {
	var s ProjectGLSettings
	err := r.db.QueryRow(ctx, `
SELECT id, project_id, ap_invoice_integration_method, ar_invoice_integration_method, labor_cost_integration_method,
       accounts_payable_account_id, accounts_receivable_account_id,
       retainage_payable_account_id, retainage_receivable_account_id,
       wages_payable_account_id, revenue_account_id, revenue_clearing_account_id,
       cost_in_excess_account_id, billing_in_excess_account_id,
       created_at, updated_at
FROM project_gl_settings WHERE project_id=$1`, projectID).
		Scan(&s.ID, &s.ProjectID, &s.APInvoiceIntegrationMethod, &s.ARInvoiceIntegrationMethod, &s.LaborCostIntegrationMethod,
			&s.AccountsPayableAccountID, &s.AccountsReceivableAccountID,
			&s.RetainagePayableAccountID, &s.RetainageReceivableAccountID,
			&s.WagesPayableAccountID, &s.RevenueAccountID, &s.RevenueClearingAccountID,
			&s.CostInExcessAccountID, &s.BillingInExcessAccountID,
			&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProjectGLSettings{}, ErrProjectSettingsNotFound
		}
		return ProjectGLSettings{}, err
	}
	return s, nil
}

func (r *repository) GetWIPSetting(ctx context.Context, key string) (WIPReportSetting, error) {
	var s WIPReportSetting
	err := r.db.QueryRow(ctx, `SELECT id, key, value, updated_at FROM wip_report_settings WHERE key=$1`, key).
		Scan(&s.ID, &s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WIPReportSetting{}, ErrSettingsNotFound
		}
		return WIPReportSetting{}, err
	}
	return s, nil
}

func (r *repository) UpsertWIPSetting(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO wip_report_settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`, key, value)
	return err
}

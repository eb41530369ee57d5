package settings

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
)

// Service resolves effective ledger settings. A single merged view is
// computed per operation and passed down to journal composition instead of
// re-querying at every call site.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Effective merges project overrides over the global settings, field by
// field. A project without an override row inherits the global view whole.
func (s *Service) Effective(ctx context.Context, projectID int64) (EffectiveSettings, error) {
	global, err := s.repo.GetGlobal(ctx)
	if err != nil {
		return EffectiveSettings{}, err
	}
	merged := EffectiveSettings{
		ProjectID:                    projectID,
		APInvoiceIntegrationMethod:   global.APInvoiceIntegrationMethod,
		ARInvoiceIntegrationMethod:   global.ARInvoiceIntegrationMethod,
		LaborCostIntegrationMethod:   global.LaborCostIntegrationMethod,
		AccountsPayableAccountID:     global.AccountsPayableAccountID,
		AccountsReceivableAccountID:  global.AccountsReceivableAccountID,
		RetainagePayableAccountID:    global.RetainagePayableAccountID,
		RetainageReceivableAccountID: global.RetainageReceivableAccountID,
		WagesPayableAccountID:        global.WagesPayableAccountID,
		RevenueAccountID:             global.RevenueAccountID,
		RevenueClearingAccountID:     global.RevenueClearingAccountID,
		CostInExcessAccountID:        global.CostInExcessAccountID,
		BillingInExcessAccountID:     global.BillingInExcessAccountID,
	}
	if projectID == 0 {
		return merged, nil
	}
	override, err := s.repo.GetForProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrProjectSettingsNotFound) {
			return merged, nil
		}
		return EffectiveSettings{}, err
	}
	if override.APInvoiceIntegrationMethod != nil {
		merged.APInvoiceIntegrationMethod = *override.APInvoiceIntegrationMethod
	}
	if override.ARInvoiceIntegrationMethod != nil {
		merged.ARInvoiceIntegrationMethod = *override.ARInvoiceIntegrationMethod
	}
	if override.LaborCostIntegrationMethod != nil {
		merged.LaborCostIntegrationMethod = *override.LaborCostIntegrationMethod
	}
	merged.AccountsPayableAccountID = pick(override.AccountsPayableAccountID, merged.AccountsPayableAccountID)
	merged.AccountsReceivableAccountID = pick(override.AccountsReceivableAccountID, merged.AccountsReceivableAccountID)
	merged.RetainagePayableAccountID = pick(override.RetainagePayableAccountID, merged.RetainagePayableAccountID)
	merged.RetainageReceivableAccountID = pick(override.RetainageReceivableAccountID, merged.RetainageReceivableAccountID)
	merged.WagesPayableAccountID = pick(override.WagesPayableAccountID, merged.WagesPayableAccountID)
	merged.RevenueAccountID = pick(override.RevenueAccountID, merged.RevenueAccountID)
	merged.RevenueClearingAccountID = pick(override.RevenueClearingAccountID, merged.RevenueClearingAccountID)
	merged.CostInExcessAccountID = pick(override.CostInExcessAccountID, merged.CostInExcessAccountID)
	merged.BillingInExcessAccountID = pick(override.BillingInExcessAccountID, merged.BillingInExcessAccountID)
	return merged, nil
}

// UseEACReporting reads the use_eac_reporting flag. Missing rows default to
// budget-based percent-complete.
func (s *Service) UseEACReporting(ctx context.Context) (bool, error) {
	setting, err := s.repo.GetWIPSetting(ctx, SettingUseEACReporting)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return false, nil
		}
		return false, err
	}
	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return false, nil
	}
	return enabled, nil
}

// SetUseEACReporting stores the use_eac_reporting flag.
func (s *Service) SetUseEACReporting(ctx context.Context, enabled bool) error {
	return s.repo.UpsertWIPSetting(ctx, SettingUseEACReporting, strconv.FormatBool(enabled))
}

func pick(override, base *uuid.UUID) *uuid.UUID {
	if override != nil {
		return override
	}
	return base
}

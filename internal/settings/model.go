package settings

import (
	"time"

	"github.com/google/uuid"
)

// IntegrationMethod selects how AP/AR documents reach the general ledger.
type IntegrationMethod string

const (
	// IntegrationMethodInvoice posts a net entry plus a separate retainage
	// entry per document.
	IntegrationMethodInvoice IntegrationMethod = "INVOICE"
	// IntegrationMethodJournalEntries posts one combined gross entry per
	// document.
	IntegrationMethodJournalEntries IntegrationMethod = "JOURNAL_ENTRIES"
)

// LaborCostMethod selects the amount basis for labor postings.
type LaborCostMethod string

const (
	LaborCostMethodActuals    LaborCostMethod = "ACTUALS"
	LaborCostMethodChargeRate LaborCostMethod = "CHARGE_RATE"
)

// GLSettings holds the global ledger-integration configuration.
type GLSettings struct {
	ID                           int64
	APInvoiceIntegrationMethod   IntegrationMethod
	ARInvoiceIntegrationMethod   IntegrationMethod
	LaborCostIntegrationMethod   LaborCostMethod
	AccountsPayableAccountID     *uuid.UUID
	AccountsReceivableAccountID  *uuid.UUID
	RetainagePayableAccountID    *uuid.UUID
	RetainageReceivableAccountID *uuid.UUID
	WagesPayableAccountID        *uuid.UUID
	RevenueAccountID             *uuid.UUID
	RevenueClearingAccountID     *uuid.UUID
	CostInExcessAccountID        *uuid.UUID
	BillingInExcessAccountID     *uuid.UUID
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// ProjectGLSettings overrides global settings per project. Nil fields fall
// through to the global value field by field, never all-or-nothing.
type ProjectGLSettings struct {
	ID                           int64
	ProjectID                    int64
	APInvoiceIntegrationMethod   *IntegrationMethod
	ARInvoiceIntegrationMethod   *IntegrationMethod
	LaborCostIntegrationMethod   *LaborCostMethod
	AccountsPayableAccountID     *uuid.UUID
	AccountsReceivableAccountID  *uuid.UUID
	RetainagePayableAccountID    *uuid.UUID
	RetainageReceivableAccountID *uuid.UUID
	WagesPayableAccountID        *uuid.UUID
	RevenueAccountID             *uuid.UUID
	RevenueClearingAccountID     *uuid.UUID
	CostInExcessAccountID        *uuid.UUID
	BillingInExcessAccountID     *uuid.UUID
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// EffectiveSettings is the fully-merged view handed to journal composition.
type EffectiveSettings struct {
	ProjectID                    int64
	APInvoiceIntegrationMethod   IntegrationMethod
	ARInvoiceIntegrationMethod   IntegrationMethod
	LaborCostIntegrationMethod   LaborCostMethod
	AccountsPayableAccountID     *uuid.UUID
	AccountsReceivableAccountID  *uuid.UUID
	RetainagePayableAccountID    *uuid.UUID
	RetainageReceivableAccountID *uuid.UUID
	WagesPayableAccountID        *uuid.UUID
	RevenueAccountID             *uuid.UUID
	RevenueClearingAccountID     *uuid.UUID
	CostInExcessAccountID        *uuid.UUID
	BillingInExcessAccountID     *uuid.UUID
}

// WIPReportSettingKey names the key/value flags read by the WIP report.
const (
	// SettingUseEACReporting switches the percent-complete basis from
	// current budget to EAC.
	SettingUseEACReporting = "use_eac_reporting"
)

// WIPReportSetting is a simple key/value flag row.
type WIPReportSetting struct {
	ID        int64
	Key       string
	Value     string
	UpdatedAt time.Time
}

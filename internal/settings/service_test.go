package settings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memorySettingsRepo struct {
	global    GLSettings
	hasGlobal bool
	projects  map[int64]ProjectGLSettings
	wip       map[string]WIPReportSetting
}

func newMemorySettingsRepo() *memorySettingsRepo {
	return &memorySettingsRepo{
		projects: make(map[int64]ProjectGLSettings),
		wip:      make(map[string]WIPReportSetting),
	}
}

func (r *memorySettingsRepo) GetGlobal(ctx context.Context) (GLSettings, error) {
	if !r.hasGlobal {
		return GLSettings{}, ErrSettingsNotFound
	}
	return r.global, nil
}

func (r *memorySettingsRepo) GetForProject(ctx context.Context, projectID int64) (ProjectGLSettings, error) {
	s, ok := r.projects[projectID]
	if !ok {
		return ProjectGLSettings{}, ErrProjectSettingsNotFound
	}
	return s, nil
}

func (r *memorySettingsRepo) GetWIPSetting(ctx context.Context, key string) (WIPReportSetting, error) {
	s, ok := r.wip[key]
	if !ok {
		return WIPReportSetting{}, ErrSettingsNotFound
	}
	return s, nil
}

func (r *memorySettingsRepo) UpsertWIPSetting(ctx context.Context, key, value string) error {
	r.wip[key] = WIPReportSetting{Key: key, Value: value}
	return nil
}

func TestEffectiveInheritsGlobalWithoutOverride(t *testing.T) {
	repo := newMemorySettingsRepo()
	ap := uuid.New()
	repo.global = GLSettings{
		APInvoiceIntegrationMethod: IntegrationMethodInvoice,
		ARInvoiceIntegrationMethod: IntegrationMethodJournalEntries,
		LaborCostIntegrationMethod: LaborCostMethodActuals,
		AccountsPayableAccountID:   &ap,
	}
	repo.hasGlobal = true
	svc := NewService(repo)

	got, err := svc.Effective(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, IntegrationMethodInvoice, got.APInvoiceIntegrationMethod)
	require.Equal(t, IntegrationMethodJournalEntries, got.ARInvoiceIntegrationMethod)
	require.Equal(t, &ap, got.AccountsPayableAccountID)
}

func TestEffectiveMergesPerField(t *testing.T) {
	repo := newMemorySettingsRepo()
	globalAP := uuid.New()
	projectRetainage := uuid.New()
	repo.global = GLSettings{
		APInvoiceIntegrationMethod: IntegrationMethodInvoice,
		ARInvoiceIntegrationMethod: IntegrationMethodInvoice,
		LaborCostIntegrationMethod: LaborCostMethodActuals,
		AccountsPayableAccountID:   &globalAP,
	}
	repo.hasGlobal = true
	method := IntegrationMethodJournalEntries
	repo.projects[7] = ProjectGLSettings{
		ProjectID:                  7,
		APInvoiceIntegrationMethod: &method,
		RetainagePayableAccountID:  &projectRetainage,
	}
	svc := NewService(repo)

	got, err := svc.Effective(context.Background(), 7)
	require.NoError(t, err)
	// overridden fields
	require.Equal(t, IntegrationMethodJournalEntries, got.APInvoiceIntegrationMethod)
	require.Equal(t, &projectRetainage, got.RetainagePayableAccountID)
	// inherited fields
	require.Equal(t, IntegrationMethodInvoice, got.ARInvoiceIntegrationMethod)
	require.Equal(t, &globalAP, got.AccountsPayableAccountID)
}

func TestUseEACReportingDefaultsFalse(t *testing.T) {
	svc := NewService(newMemorySettingsRepo())
	enabled, err := svc.UseEACReporting(context.Background())
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestUseEACReportingRoundTrip(t *testing.T) {
	svc := NewService(newMemorySettingsRepo())
	require.NoError(t, svc.SetUseEACReporting(context.Background(), true))
	enabled, err := svc.UseEACReporting(context.Background())
	require.NoError(t, err)
	require.True(t, enabled)
}

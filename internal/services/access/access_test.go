package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kokoroai/counselor-backend/internal/models"
)

type SubscriptionReaderMock struct{ mock.Mock }

func (m *SubscriptionReaderMock) FindCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

type TrialReaderMock struct{ mock.Mock }

func (m *TrialReaderMock) GetTrial(ctx context.Context, userUID string) (*models.Trial, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trial), args.Error(1)
}

type UserReaderMock struct{ mock.Mock }

func (m *UserReaderMock) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(sub *models.Subscription, trial *models.Trial, user *models.User) *Service {
	subs := new(SubscriptionReaderMock)
	trials := new(TrialReaderMock)
	users := new(UserReaderMock)
	subs.On("FindCurrentSubscription", mock.Anything, "user-1").Return(sub, nil)
	trials.On("GetTrial", mock.Anything, "user-1").Return(trial, nil)
	users.On("GetUserByUID", mock.Anything, "user-1").Return(user, nil)
	return NewService(subs, trials, users, discardLogger())
}

func TestResolveAccessState_NoRecords(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.PlanNone, state.Plan)
	assert.False(t, state.HasActiveSubscription)
	assert.False(t, state.OnTrial)
	assert.Nil(t, state.TrialExpiresAt)
	assert.False(t, state.LineLinked)
	assert.False(t, state.CanUseIndividual)
	assert.False(t, state.CanUseTeam)
}

func TestResolveAccessState_ActiveBasic(t *testing.T) {
	end := time.Now().UTC().Add(30 * 24 * time.Hour)
	sub := &models.Subscription{
		Status:           models.SubscriptionStatusActive,
		Tier:             models.PlanBasic,
		CurrentPeriodEnd: &end,
	}
	svc := newTestService(sub, nil, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.PlanBasic, state.Plan)
	assert.True(t, state.HasActiveSubscription)
	assert.True(t, state.CanUseIndividual)
	assert.False(t, state.CanUseTeam, "basic plan must not open team sessions")
}

func TestResolveAccessState_ActivePremium(t *testing.T) {
	end := time.Now().UTC().Add(24 * time.Hour)
	sub := &models.Subscription{
		Status:           models.SubscriptionStatusActive,
		Tier:             models.PlanPremium,
		CurrentPeriodEnd: &end,
	}
	svc := newTestService(sub, nil, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.PlanPremium, state.Plan)
	assert.True(t, state.CanUseIndividual)
	assert.True(t, state.CanUseTeam)
}

func TestResolveAccessState_NilPeriodEndNeverExpires(t *testing.T) {
	sub := &models.Subscription{
		Status: models.SubscriptionStatusActive,
		Tier:   models.PlanPremium,
	}
	svc := newTestService(sub, nil, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, state.HasActiveSubscription)
	assert.Equal(t, models.PlanPremium, state.Plan)
	assert.True(t, state.CanUseTeam)
}

func TestResolveAccessState_ExpiredSubscription(t *testing.T) {
	end := time.Now().UTC().Add(-time.Minute)
	sub := &models.Subscription{
		Status:           models.SubscriptionStatusActive,
		Tier:             models.PlanPremium,
		CurrentPeriodEnd: &end,
	}
	svc := newTestService(sub, nil, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.False(t, state.HasActiveSubscription)
	assert.Equal(t, models.PlanNone, state.Plan, "expired subscription must not report a plan")
	assert.False(t, state.CanUseIndividual)
	assert.False(t, state.CanUseTeam)
}

func TestResolveAccessState_NonActiveStatusIgnored(t *testing.T) {
	end := time.Now().UTC().Add(24 * time.Hour)
	sub := &models.Subscription{
		Status:           models.SubscriptionStatusCanceled,
		Tier:             models.PlanPremium,
		CurrentPeriodEnd: &end,
	}
	svc := newTestService(sub, nil, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.False(t, state.HasActiveSubscription)
	assert.Equal(t, models.PlanNone, state.Plan)
}

func TestResolveAccessState_TrialOpensBothModes(t *testing.T) {
	expires := time.Now().UTC().Add(24 * time.Hour)
	trial := &models.Trial{TrialExpiresAt: &expires}
	svc := newTestService(nil, trial, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, state.OnTrial)
	require.NotNil(t, state.TrialExpiresAt)
	assert.Equal(t, expires, *state.TrialExpiresAt)
	assert.Equal(t, models.PlanNone, state.Plan)
	assert.True(t, state.CanUseIndividual)
	assert.True(t, state.CanUseTeam)
}

func TestResolveAccessState_ExpiredTrial(t *testing.T) {
	expires := time.Now().UTC().Add(-time.Second)
	trial := &models.Trial{TrialExpiresAt: &expires}
	svc := newTestService(nil, trial, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.False(t, state.OnTrial)
	assert.False(t, state.CanUseIndividual)
	assert.False(t, state.CanUseTeam)
	require.NotNil(t, state.TrialExpiresAt, "expiry date is reported even for an expired trial")
	assert.Equal(t, expires, *state.TrialExpiresAt)
}

func TestResolveAccessState_TrialWithoutExpiry(t *testing.T) {
	trial := &models.Trial{Source: "line", LineLinked: true}
	svc := newTestService(nil, trial, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.False(t, state.OnTrial, "trial with no expiry date is not active")
	assert.True(t, state.LineLinked)
}

func TestResolveAccessState_LineLinkedFromProfile(t *testing.T) {
	linkedAt := time.Now().UTC().Add(-48 * time.Hour)
	user := &models.User{UID: "user-1", LineLinkedAt: &linkedAt}
	svc := newTestService(nil, nil, user)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, state.LineLinked)
}

func TestResolveAccessState_LineLinkedFromBothSources(t *testing.T) {
	linkedAt := time.Now().UTC().Add(-time.Hour)
	trial := &models.Trial{Source: "line", LineLinked: true}
	user := &models.User{UID: "user-1", LineLinkedAt: &linkedAt}
	svc := newTestService(nil, trial, user)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, state.LineLinked)
	assert.False(t, state.OnTrial)
}

func TestResolveAccessState_SubscriptionOverridesTrialPolicy(t *testing.T) {
	end := time.Now().UTC().Add(24 * time.Hour)
	expires := time.Now().UTC().Add(24 * time.Hour)
	sub := &models.Subscription{
		Status:           models.SubscriptionStatusActive,
		Tier:             models.PlanBasic,
		CurrentPeriodEnd: &end,
	}
	trial := &models.Trial{TrialExpiresAt: &expires}
	svc := newTestService(sub, trial, nil)

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, state.HasActiveSubscription)
	assert.True(t, state.OnTrial)
	assert.True(t, state.CanUseIndividual)
	assert.False(t, state.CanUseTeam, "active basic subscription decides capabilities even during a trial")
}

func TestResolveAccessState_ReadErrorPropagates(t *testing.T) {
	subs := new(SubscriptionReaderMock)
	trials := new(TrialReaderMock)
	users := new(UserReaderMock)
	subs.On("FindCurrentSubscription", mock.Anything, "user-1").Return(nil, errors.New("connection refused"))
	trials.On("GetTrial", mock.Anything, "user-1").Return(nil, nil).Maybe()
	users.On("GetUserByUID", mock.Anything, "user-1").Return(nil, nil).Maybe()
	svc := NewService(subs, trials, users, discardLogger())

	state, err := svc.ResolveAccessState(context.Background(), "user-1")
	assert.Nil(t, state)
	assert.Error(t, err)
}

func TestAssertAccess_IndividualAllowedOnTrial(t *testing.T) {
	expires := time.Now().UTC().Add(time.Hour)
	trial := &models.Trial{TrialExpiresAt: &expires}
	svc := newTestService(nil, trial, nil)

	state, err := svc.AssertAccess(context.Background(), "user-1", RequirementIndividual)
	require.NoError(t, err)
	assert.True(t, state.OnTrial)
}

func TestAssertAccess_TeamDeniedForBasic(t *testing.T) {
	end := time.Now().UTC().Add(24 * time.Hour)
	sub := &models.Subscription{
		Status:           models.SubscriptionStatusActive,
		Tier:             models.PlanBasic,
		CurrentPeriodEnd: &end,
	}
	svc := newTestService(sub, nil, nil)

	state, err := svc.AssertAccess(context.Background(), "user-1", RequirementTeam)
	assert.Nil(t, state)
	require.Error(t, err)

	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, http.StatusPaymentRequired, accessErr.Status)
	assert.Contains(t, accessErr.Detail, "premium")
}

func TestAssertAccess_IndividualDeniedWithoutAnything(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	state, err := svc.AssertAccess(context.Background(), "user-1", RequirementIndividual)
	assert.Nil(t, state)
	require.Error(t, err)

	status, detail := ParseAccessError(err)
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Contains(t, detail, "basic")
}

func TestParseAccessError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "типизированная ошибка доступа",
			err:        NewPaymentRequired(models.PlanPremium),
			wantStatus: http.StatusPaymentRequired,
			wantDetail: "Please subscribe to the premium plan or use an active trial / campaign code",
		},
		{
			name:       "обернутая ошибка доступа",
			err:        errors.Join(errors.New("handler"), NewPaymentRequired(models.PlanBasic)),
			wantStatus: http.StatusPaymentRequired,
			wantDetail: "Please subscribe to the basic plan or use an active trial / campaign code",
		},
		{
			name:       "посторонняя ошибка",
			err:        errors.New("boom"),
			wantStatus: http.StatusForbidden,
			wantDetail: "Access denied",
		},
		{
			name:       "nil",
			err:        nil,
			wantStatus: http.StatusForbidden,
			wantDetail: "Access denied",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := ParseAccessError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

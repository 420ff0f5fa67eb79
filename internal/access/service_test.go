package access

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medledger/internal/audit"
	auditmem "medledger/internal/audit/store/memory"
	"medledger/internal/authz"
	"medledger/internal/grant"
	grantmem "medledger/internal/grant/store/memory"
	"medledger/internal/identity"
	"medledger/internal/platform/metrics"
	"medledger/internal/record"
	id "medledger/pkg/domain"
	dErrors "medledger/pkg/domain-errors"
	"medledger/pkg/requestcontext"
)

type fixture struct {
	users   *identity.InMemoryStore
	grants  *grantmem.InMemoryStore
	records *record.InMemoryStore
	audits  *auditmem.InMemoryStore
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := identity.NewInMemoryStore()
	grants := grantmem.NewInMemoryStore()
	records := record.NewInMemoryStore()
	audits := auditmem.NewInMemoryStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewTestMetrics()
	recorder := audit.NewRecorder(audits, logger, m)
	gate := authz.New(grants)

	return &fixture{
		users:   users,
		grants:  grants,
		records: records,
		audits:  audits,
		svc:     NewService(grants, users, records, gate, recorder, m, logger),
	}
}

func (f *fixture) addUser(t *testing.T, role identity.Role, approved, active bool) *identity.User {
	t.Helper()
	user := &identity.User{
		ID:         id.NewUserID(),
		Name:       "Test " + string(role),
		Email:      id.NewUserID().String() + "@example.com",
		Role:       role,
		IsApproved: approved,
		IsActive:   active,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) doctor(t *testing.T) *identity.User {
	return f.addUser(t, identity.RoleDoctor, true, true)
}

func (f *fixture) patient(t *testing.T) *identity.User {
	return f.addUser(t, identity.RolePatient, false, true)
}

func (f *fixture) lastEvent(t *testing.T) audit.Event {
	t.Helper()
	events, err := f.audits.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, events, "expected an audit event")
	return events[0]
}

func (f *fixture) eventCount(t *testing.T) int {
	t.Helper()
	events, err := f.audits.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	return len(events)
}

func TestRequestAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending grant visible to both sides", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.doctor(t)
		patient := f.patient(t)

		g, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
		assert.Equal(t, grant.StatusPending, g.Status)
		assert.Equal(t, doctor.ID, g.AccessorID)
		assert.Equal(t, patient.ID, g.OwnerID)
		assert.Nil(t, g.RespondedAt)

		outgoing, err := f.svc.ListOutgoing(ctx, doctor)
		require.NoError(t, err)
		require.Len(t, outgoing, 1)
		assert.Equal(t, g.ID, outgoing[0].ID)

		incoming, err := f.svc.ListIncoming(ctx, patient)
		require.NoError(t, err)
		require.Len(t, incoming, 1)
		assert.Equal(t, g.ID, incoming[0].ID)

		event := f.lastEvent(t)
		assert.Equal(t, audit.ActionAccessRequested, event.Action)
		assert.Equal(t, doctor.ID, event.PerformedBy)
		require.NotNil(t, event.TargetUser)
		assert.Equal(t, patient.ID, *event.TargetUser)
	})

	t.Run("duplicate active request conflicts", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.doctor(t)
		patient := f.patient(t)

		_, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)

		_, err = f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, 1, f.eventCount(t), "failed request must not be audited")
	})

	t.Run("new request allowed after revocation", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.doctor(t)
		patient := f.patient(t)

		first, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
		_, err = f.svc.Respond(ctx, patient, first.ID, DecisionRevoke)
		require.NoError(t, err)

		second, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, grant.StatusPending, second.Status)
	})

	t.Run("unknown or non-patient target reads as not found", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.doctor(t)
		otherDoctor := f.doctor(t)

		_, err := f.svc.RequestAccess(ctx, doctor, id.NewUserID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = f.svc.RequestAccess(ctx, doctor, otherDoctor.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("requesting access to yourself is rejected", func(t *testing.T) {
		f := newFixture(t)
		// The target resolves to a non-patient, so the caller learns nothing
		// beyond "no such patient".
		doctor := f.doctor(t)

		_, err := f.svc.RequestAccess(ctx, doctor, doctor.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("denied principals cannot request", func(t *testing.T) {
		f := newFixture(t)
		patient := f.patient(t)

		cases := []struct {
			name      string
			principal *identity.User
			code      dErrors.Code
		}{
			{"patient role", f.addUser(t, identity.RolePatient, false, true), dErrors.CodeRoleMismatch},
			{"unapproved doctor", f.addUser(t, identity.RoleDoctor, false, true), dErrors.CodePendingApproval},
			{"deactivated doctor", f.addUser(t, identity.RoleDoctor, true, false), dErrors.CodeAccountDeactivated},
			{"nil principal", nil, dErrors.CodeAccountDeactivated},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.svc.RequestAccess(ctx, tc.principal, patient.ID)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, tc.code))
			})
		}
		assert.Zero(t, f.eventCount(t), "denials must not be audited")
	})
}

func TestRespond(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *identity.User, *identity.User, *grant.AccessGrant) {
		f := newFixture(t)
		doctor := f.doctor(t)
		patient := f.patient(t)
		g, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
		return f, doctor, patient, g
	}

	t.Run("grant from pending sets responded_at once", func(t *testing.T) {
		f, doctor, patient, g := setup(t)
		decidedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

		updated, err := f.svc.Respond(requestcontext.WithTime(ctx, decidedAt), patient, g.ID, DecisionGrant)
		require.NoError(t, err)
		assert.Equal(t, grant.StatusGranted, updated.Status)
		require.NotNil(t, updated.RespondedAt)
		assert.True(t, updated.RespondedAt.Equal(decidedAt))

		event := f.lastEvent(t)
		assert.Equal(t, audit.ActionAccessGranted, event.Action)
		assert.Equal(t, patient.ID, event.PerformedBy)
		require.NotNil(t, event.TargetUser)
		assert.Equal(t, doctor.ID, *event.TargetUser)

		// A later revoke must not move the decision timestamp.
		laterAt := decidedAt.Add(48 * time.Hour)
		revoked, err := f.svc.Respond(requestcontext.WithTime(ctx, laterAt), patient, g.ID, DecisionRevoke)
		require.NoError(t, err)
		assert.Equal(t, grant.StatusRevoked, revoked.Status)
		require.NotNil(t, revoked.RespondedAt)
		assert.True(t, revoked.RespondedAt.Equal(decidedAt))
	})

	t.Run("revoke straight from pending rejects the request", func(t *testing.T) {
		f, _, patient, g := setup(t)

		updated, err := f.svc.Respond(ctx, patient, g.ID, DecisionRevoke)
		require.NoError(t, err)
		assert.Equal(t, grant.StatusRevoked, updated.Status)
		assert.Equal(t, audit.ActionAccessRevoked, f.lastEvent(t).Action)
	})

	t.Run("revoked is terminal", func(t *testing.T) {
		f, _, patient, g := setup(t)
		_, err := f.svc.Respond(ctx, patient, g.ID, DecisionRevoke)
		require.NoError(t, err)

		for _, decision := range []Decision{DecisionGrant, DecisionRevoke} {
			_, err = f.svc.Respond(ctx, patient, g.ID, decision)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		}
	})

	t.Run("granting an already granted request is invalid state", func(t *testing.T) {
		f, _, patient, g := setup(t)
		_, err := f.svc.Respond(ctx, patient, g.ID, DecisionGrant)
		require.NoError(t, err)

		_, err = f.svc.Respond(ctx, patient, g.ID, DecisionGrant)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("another patient's grant is not found", func(t *testing.T) {
		f, _, _, g := setup(t)
		stranger := f.patient(t)

		_, err := f.svc.Respond(ctx, stranger, g.ID, DecisionGrant)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("missing grant is not found", func(t *testing.T) {
		f, _, patient, _ := setup(t)

		_, err := f.svc.Respond(ctx, patient, id.NewGrantID(), DecisionGrant)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestGrantedOwners(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doctor := f.doctor(t)
	granted := f.patient(t)
	pendingOnly := f.patient(t)
	revokedLater := f.patient(t)

	for _, patient := range []*identity.User{granted, pendingOnly, revokedLater} {
		_, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
	}

	grants, err := f.svc.ListOutgoing(ctx, doctor)
	require.NoError(t, err)
	byOwner := map[id.UserID]id.GrantID{}
	for _, g := range grants {
		byOwner[g.OwnerID] = g.ID
	}

	_, err = f.svc.Respond(ctx, granted, byOwner[granted.ID], DecisionGrant)
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, revokedLater, byOwner[revokedLater.ID], DecisionGrant)
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, revokedLater, byOwner[revokedLater.ID], DecisionRevoke)
	require.NoError(t, err)

	owners, err := f.svc.GrantedOwners(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, granted.ID, owners[0].ID)
}

func TestViewRecords(t *testing.T) {
	ctx := context.Background()

	seedRecords := func(t *testing.T, f *fixture, owner *identity.User, n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			rec, err := record.NewRecord(id.NewRecordID(), owner.ID, record.CreateInput{
				Title: "Visit note",
			}, time.Now())
			require.NoError(t, err)
			require.NoError(t, f.records.Create(ctx, rec))
		}
	}

	t.Run("granted accessor reads records and the read is audited", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.doctor(t)
		patient := f.patient(t)
		seedRecords(t, f, patient, 3)

		g, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
		_, err = f.svc.Respond(ctx, patient, g.ID, DecisionGrant)
		require.NoError(t, err)

		viewCtx := requestcontext.WithClientDevice(ctx, requestcontext.Device{Browser: "Firefox", OS: "Linux"})
		records, err := f.svc.ViewRecords(viewCtx, doctor, patient.ID)
		require.NoError(t, err)
		assert.Len(t, records, 3)

		event := f.lastEvent(t)
		assert.Equal(t, audit.ActionRecordViewed, event.Action)
		assert.Equal(t, doctor.ID, event.PerformedBy)
		details, ok := event.Details.(audit.RecordViewDetails)
		require.True(t, ok, "expected RecordViewDetails, got %T", event.Details)
		assert.Equal(t, 3, details.RecordCount)
		assert.Equal(t, "Firefox", details.Browser)
		assert.Equal(t, "Linux", details.OS)
	})

	t.Run("pending consent is not enough", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.doctor(t)
		patient := f.patient(t)
		seedRecords(t, f, patient, 1)

		_, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
		before := f.eventCount(t)

		_, err = f.svc.ViewRecords(ctx, doctor, patient.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingConsent))
		assert.True(t, dErrors.IsForbidden(err))
		assert.Equal(t, before, f.eventCount(t), "denied reads must not be audited")
	})

	t.Run("revocation cuts off access on the next read", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.doctor(t)
		patient := f.patient(t)
		seedRecords(t, f, patient, 1)

		g, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
		_, err = f.svc.Respond(ctx, patient, g.ID, DecisionGrant)
		require.NoError(t, err)
		_, err = f.svc.ViewRecords(ctx, doctor, patient.ID)
		require.NoError(t, err)

		_, err = f.svc.Respond(ctx, patient, g.ID, DecisionRevoke)
		require.NoError(t, err)

		_, err = f.svc.ViewRecords(ctx, doctor, patient.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingConsent))
	})

	t.Run("empty record set still audits the read", func(t *testing.T) {
		f := newFixture(t)
		doctor := f.doctor(t)
		patient := f.patient(t)

		g, err := f.svc.RequestAccess(ctx, doctor, patient.ID)
		require.NoError(t, err)
		_, err = f.svc.Respond(ctx, patient, g.ID, DecisionGrant)
		require.NoError(t, err)

		records, err := f.svc.ViewRecords(ctx, doctor, patient.ID)
		require.NoError(t, err)
		assert.Empty(t, records)

		event := f.lastEvent(t)
		require.Equal(t, audit.ActionRecordViewed, event.Action)
		details := event.Details.(audit.RecordViewDetails)
		assert.Zero(t, details.RecordCount)
	})
}

func TestParseDecision(t *testing.T) {
	for _, valid := range []string{"grant", "revoke"} {
		d, err := ParseDecision(valid)
		require.NoError(t, err)
		assert.Equal(t, Decision(valid), d)
	}
	for _, invalid := range []string{"", "approve", "GRANT"} {
		_, err := ParseDecision(invalid)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	}
}

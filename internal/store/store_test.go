package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, primary *DynamoStore) *Store {
	t.Helper()
	return New(primary, NewFileStore(t.TempDir(), nil), nil)
}

func TestSaveAppointmentDualWrite(t *testing.T) {
	fake := newFakeDynamo()
	s := newTestStore(t, NewDynamoStore(fake, testTables(), time.Second, nil))

	out := s.SaveAppointment(context.Background(), &Appointment{ID: "APT-1", Status: StatusScheduled})
	require.True(t, out.Ok())
	assert.False(t, out.Degraded())

	appts, fromPrimary, err := s.ListAppointments(context.Background())
	require.NoError(t, err)
	assert.True(t, fromPrimary)
	assert.Len(t, appts, 1)
}

func TestSaveAppointmentPrimaryFailureIsWarning(t *testing.T) {
	fake := newFakeDynamo()
	fake.err = errors.New("boom")
	s := newTestStore(t, NewDynamoStore(fake, testTables(), time.Second, nil))

	out := s.SaveAppointment(context.Background(), &Appointment{ID: "APT-1", Status: StatusScheduled})
	assert.True(t, out.Ok(), "file write alone must count as success")
	assert.True(t, out.Degraded())

	appts, fromPrimary, err := s.ListAppointments(context.Background())
	require.NoError(t, err)
	assert.False(t, fromPrimary, "read should fall back to the file")
	assert.Len(t, appts, 1)
}

func TestNoPrimaryStore(t *testing.T) {
	s := newTestStore(t, nil)

	assert.False(t, s.Available())

	out := s.SaveAppointment(context.Background(), &Appointment{ID: "APT-1", Status: StatusScheduled})
	assert.True(t, out.Ok())
	assert.ErrorIs(t, out.PrimaryErr, ErrUnavailable)

	assert.ErrorIs(t, s.SaveLead(context.Background(), &Lead{ID: "L-1"}), ErrUnavailable)
	_, err := s.ListConversations(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCancelInPrimaryPrecedence(t *testing.T) {
	fake := newFakeDynamo()
	s := newTestStore(t, NewDynamoStore(fake, testTables(), time.Second, nil))
	ctx := context.Background()

	s.SaveAppointment(ctx, &Appointment{ID: "APT-1", Title: "Consult", Status: StatusScheduled})

	appt, err := s.CancelInPrimary(ctx, "APT-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, appt.Status)
	assert.Equal(t, "Consult", appt.Title)

	_, err = s.CancelInPrimary(ctx, "APT-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFormUsersFallsBackToFileWhenPrimaryEmpty(t *testing.T) {
	fake := newFakeDynamo()
	s := newTestStore(t, NewDynamoStore(fake, testTables(), time.Second, nil))
	ctx := context.Background()

	require.NoError(t, s.files.AppendFormUser(&FormUser{Name: "Jane", Email: "jane@x.com"}))

	users, fromPrimary, err := s.ListFormUsers(ctx)
	require.NoError(t, err)
	assert.False(t, fromPrimary)
	require.Len(t, users, 1)
	assert.Equal(t, "Jane", users[0].Name)

	// Once the primary holds data it wins.
	out := s.SaveFormUser(ctx, &FormUser{Name: "Joe", Email: "joe@x.com"})
	require.True(t, out.Ok())
	users, fromPrimary, err = s.ListFormUsers(ctx)
	require.NoError(t, err)
	assert.True(t, fromPrimary)
	require.Len(t, users, 1)
	assert.Equal(t, "Joe", users[0].Name)
}

func TestSaveFormUserBumpsCounter(t *testing.T) {
	fake := newFakeDynamo()
	s := newTestStore(t, NewDynamoStore(fake, testTables(), time.Second, nil))

	out := s.SaveFormUser(context.Background(), &FormUser{Name: "Jane", Email: "jane@x.com"})
	require.True(t, out.Ok())
	assert.Equal(t, 1, fake.updateCalls, "total_users counter should be incremented")
}

package alert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockSMSSender records every message handed to it.
type mockSMSSender struct {
	mu    sync.Mutex
	sent  []string
	fail  map[string]bool
	calls sync.WaitGroup
}

func (m *mockSMSSender) Send(phone, body string) error {
	defer m.calls.Done()
	if m.fail[phone] {
		return fmt.Errorf("carrier rejected %s", phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, phone+": "+body)
	return nil
}

// mockPushSender is a mock implementation of the PushSender interface.
type mockPushSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func expectUserWithGuardians(mock sqlmock.Sqlmock, userID int64, phones ...string) {
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE "users"\."id" = \$1 ORDER BY "users"\."id" LIMIT \$[0-9]+`).
		WithArgs(userID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "username"}).
			AddRow(userID, "01011112222", "Jay"))

	guardianRows := sqlmock.NewRows([]string{"id", "user_id", "relation", "phone"})
	for i, p := range phones {
		guardianRows.AddRow(int64(i+1), userID, "family", p)
	}
	mock.ExpectQuery(`SELECT .* FROM "guardians" WHERE "guardians"\."user_id" = \$1`).
		WithArgs(userID).
		WillReturnRows(guardianRows)
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// Dispatch a job
	wp.Dispatch(Alert{UserID: 123, Lat: 37.5, Lng: 127.0})

	// Check if the job is in the channel
	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(123), job.UserID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("texts every guardian and confirms to the user", func(t *testing.T) {
		userID := int64(101)
		sms := &mockSMSSender{}
		sms.calls.Add(2)
		wp.sms = sms

		var pushWG sync.WaitGroup
		pushWG.Add(1)
		wp.push = &mockPushSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "Emergency alert delivered to 2 of 2 guardians", string(payload))
				pushWG.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		expectUserWithGuardians(mock, userID, "01033334444", "01055556666")
		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "created_at"}).
				AddRow("https://example.com/push", "test_p256dh", "test_auth", userID, time.Now()))

		wp.Dispatch(Alert{UserID: userID, Lat: 37.5012, Lng: 127.0399})
		sms.calls.Wait()
		pushWG.Wait()

		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Len(t, sms.sent, 2)
		assert.Contains(t, sms.sent[0], "01033334444: [EMERGENCY] Jay needs help")
		assert.Contains(t, sms.sent[0], "37.501200, 127.039900")
	})

	t.Run("a failing guardian does not stop the fan-out", func(t *testing.T) {
		userID := int64(102)
		sms := &mockSMSSender{fail: map[string]bool{"01000000000": true}}
		sms.calls.Add(2)
		wp.sms = sms

		var pushWG sync.WaitGroup
		pushWG.Add(1)
		wp.push = &mockPushSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "Emergency alert delivered to 1 of 2 guardians", string(payload))
				pushWG.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		expectUserWithGuardians(mock, userID, "01000000000", "01077778888")
		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "created_at"}).
				AddRow("https://example.com/receipt", "p", "a", userID, time.Now()))

		wp.Dispatch(Alert{UserID: userID, Lat: 37.5, Lng: 127.0})
		sms.calls.Wait()
		pushWG.Wait()

		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Len(t, sms.sent, 1)
		assert.Contains(t, sms.sent[0], "01077778888")
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		userID := int64(103)
		sms := &mockSMSSender{}
		sms.calls.Add(1)
		wp.sms = sms

		wp.push = &mockPushSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		expectUserWithGuardians(mock, userID, "01099990000")
		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "created_at"}).
				AddRow("https://example.com/expired", "p", "a", userID, time.Now()))

		// Expect the delete operation
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"\."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch(Alert{UserID: userID, Lat: 37.5, Lng: 127.0})
		sms.calls.Wait()

		// A short sleep to allow the worker to finish the push round-trip
		time.Sleep(100 * time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/agentcore/chatcore/internal/errs"
	"github.com/agentcore/chatcore/pkg/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}

	mock.ExpectPrepare("INSERT INTO messages")
	mock.ExpectPrepare("SELECT id, kind, content.*ORDER BY seq ASC")
	mock.ExpectPrepare("SELECT id, kind, content.*ORDER BY seq DESC")
	mock.ExpectPrepare("SELECT id, content, created_at FROM summaries")
	mock.ExpectPrepare("INSERT INTO summaries")
	mock.ExpectPrepare("DELETE FROM messages WHERE session_id = \\$1$")
	mock.ExpectPrepare("DELETE FROM summaries")
	mock.ExpectPrepare("DELETE FROM messages WHERE session_id = \\$1 AND id = \\$2$")

	st, err := NewPostgresStore(db)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return st, mock
}

func TestPostgresStoreAppend(t *testing.T) {
	st, mock := newMockStore(t)
	sess, _ := models.NewSession("chat1", "topic1")
	msg, _ := models.NewUserMessage("hi", "")

	mock.ExpectExec("INSERT INTO messages").WillReturnResult(sqlmock.NewResult(1, 1))

	if err := st.Append(context.Background(), sess, msg); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreAppendStorageError(t *testing.T) {
	st, mock := newMockStore(t)
	sess, _ := models.NewSession("chat1", "topic1")
	msg, _ := models.NewUserMessage("hi", "")

	mock.ExpectExec("INSERT INTO messages").WillReturnError(context.DeadlineExceeded)

	err := st.Append(context.Background(), sess, msg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errs.Is(err, errs.KindStorage) {
		t.Fatalf("expected KindStorage, got %v", err)
	}
}

func TestPostgresStoreMessages(t *testing.T) {
	st, mock := newMockStore(t)
	sess, _ := models.NewSession("chat1", "topic1")

	rows := sqlmock.NewRows([]string{"id", "kind", "content", "name", "tool_name", "args_str",
		"result_for_tool", "finish_reason", "prompt_tokens", "reply_tokens", "cost", "pinned", "created_at"}).
		AddRow("m1", "user", "hello", "", "", "", "", "", 0, 0, 0.0, false, time.Now())

	mock.ExpectQuery("SELECT id, kind, content.*ORDER BY seq ASC").WithArgs(sess.ID()).WillReturnRows(rows)

	msgs, err := st.Messages(context.Background(), sess, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
	if msgs[0].Content != "hello" {
		t.Fatalf("msgs[0].Content = %q, want %q", msgs[0].Content, "hello")
	}
}

func TestPostgresStoreSummaryNotFound(t *testing.T) {
	st, mock := newMockStore(t)
	sess, _ := models.NewSession("chat1", "topic1")

	mock.ExpectQuery("SELECT id, content, created_at FROM summaries").
		WithArgs(sess.ID()).
		WillReturnError(sql.ErrNoRows)

	sum, err := st.Summary(context.Background(), sess)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum != nil {
		t.Fatalf("Summary() = %v, want nil", sum)
	}
}

func TestPostgresStoreDeleteSingleMessage(t *testing.T) {
	st, mock := newMockStore(t)
	sess, _ := models.NewSession("chat1", "topic1")

	mock.ExpectExec("DELETE FROM messages WHERE session_id = \\$1 AND id = \\$2").
		WithArgs(sess.ID(), "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.Delete(context.Background(), sess, "m1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/agentcore/chatcore/internal/errs"
	"github.com/agentcore/chatcore/pkg/models"
)

// SQLiteStore is a file-backed Store for local/dev use, adapted from
// PostgresStore's prepared-statement shape onto modernc.org/sqlite's
// pure-Go driver (no cgo dependency on a libsqlite3 binding).
//
// Schema differs from PostgresStore only in ordering/upsert syntax: sqlite
// has no BIGSERIAL, so seq rides the table's own rowid instead.
type SQLiteStore struct {
	db *sql.DB

	stmtAppend        *sql.Stmt
	stmtMessages      *sql.Stmt
	stmtMessagesN     *sql.Stmt
	stmtSummary       *sql.Stmt
	stmtSetSummary    *sql.Stmt
	stmtClearMessages *sql.Stmt
	stmtClearSummary  *sql.Stmt
	stmtDeleteMessage *sql.Stmt
}

// SQLiteSchema is the DDL SQLiteStore expects to already exist.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	rowid            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id       TEXT NOT NULL,
	id               TEXT NOT NULL,
	kind             TEXT NOT NULL,
	content          TEXT NOT NULL DEFAULT '',
	name             TEXT NOT NULL DEFAULT '',
	tool_name        TEXT NOT NULL DEFAULT '',
	args_str         TEXT NOT NULL DEFAULT '',
	result_for_tool  TEXT NOT NULL DEFAULT '',
	finish_reason    TEXT NOT NULL DEFAULT '',
	prompt_tokens    INTEGER NOT NULL DEFAULT 0,
	reply_tokens     INTEGER NOT NULL DEFAULT 0,
	cost             REAL NOT NULL DEFAULT 0,
	pinned           INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(session_id, id)
);
CREATE INDEX IF NOT EXISTS idx_messages_session_rowid ON messages (session_id, rowid);

CREATE TABLE IF NOT EXISTS summaries (
	session_id  TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// NewSQLiteStore opens db and prepares every statement this store needs.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.prepare(); err != nil {
		return nil, errs.Storage("history.NewSQLiteStore", err, false)
	}
	return s, nil
}

func (s *SQLiteStore) prepare() error {
	var err error

	s.stmtAppend, err = s.db.Prepare(`
		INSERT INTO messages
			(session_id, id, kind, content, name, tool_name, args_str,
			 result_for_tool, finish_reason, prompt_tokens, reply_tokens,
			 cost, pinned, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}

	s.stmtMessages, err = s.db.Prepare(`
		SELECT id, kind, content, name, tool_name, args_str, result_for_tool,
		       finish_reason, prompt_tokens, reply_tokens, cost, pinned, created_at
		FROM messages WHERE session_id = ? ORDER BY rowid ASC
	`)
	if err != nil {
		return fmt.Errorf("prepare messages: %w", err)
	}

	s.stmtMessagesN, err = s.db.Prepare(`
		SELECT id, kind, content, name, tool_name, args_str, result_for_tool,
		       finish_reason, prompt_tokens, reply_tokens, cost, pinned, created_at
		FROM messages WHERE session_id = ? ORDER BY rowid DESC LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("prepare messages limit: %w", err)
	}

	s.stmtSummary, err = s.db.Prepare(`
		SELECT id, content, created_at FROM summaries WHERE session_id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare summary: %w", err)
	}

	s.stmtSetSummary, err = s.db.Prepare(`
		INSERT INTO summaries (session_id, id, content) VALUES (?,?,?)
		ON CONFLICT(session_id) DO UPDATE SET id = excluded.id, content = excluded.content, created_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare set summary: %w", err)
	}

	s.stmtClearMessages, err = s.db.Prepare(`DELETE FROM messages WHERE session_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare clear messages: %w", err)
	}

	s.stmtClearSummary, err = s.db.Prepare(`DELETE FROM summaries WHERE session_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare clear summary: %w", err)
	}

	s.stmtDeleteMessage, err = s.db.Prepare(`DELETE FROM messages WHERE session_id = ? AND id = ?`)
	if err != nil {
		return fmt.Errorf("prepare delete message: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, session models.Session, msg *models.Message) error {
	_, err := s.stmtAppend.ExecContext(ctx,
		session.ID(), msg.ID, string(msg.Kind), msg.Content, msg.Name,
		msg.ToolName, msg.ArgsStr, msg.ResultForTool, string(msg.FinishReason),
		msg.PromptTokens, msg.ReplyTokens, msg.Cost, msg.Pinned, msg.CreatedAt,
	)
	if err != nil {
		return errs.Storage("history.Append", err, isTransient(err))
	}
	return nil
}

func (s *SQLiteStore) Messages(ctx context.Context, session models.Session, limit int) ([]*models.Message, error) {
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.stmtMessagesN.QueryContext(ctx, session.ID(), limit)
	} else {
		rows, err = s.stmtMessages.QueryContext(ctx, session.ID())
	}
	if err != nil {
		return nil, errs.Storage("history.Messages", err, isTransient(err))
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, errs.Storage("history.Messages", err, false)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("history.Messages", err, isTransient(err))
	}
	if limit > 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (s *SQLiteStore) Summary(ctx context.Context, session models.Session) (*models.Message, error) {
	row := s.stmtSummary.QueryRowContext(ctx, session.ID())
	var id, content string
	var created interface{}
	if err := row.Scan(&id, &content, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errs.Storage("history.Summary", err, isTransient(err))
	}
	sum := models.NewSummaryMessage(content)
	sum.ID = id
	return sum, nil
}

func (s *SQLiteStore) SetSummary(ctx context.Context, session models.Session, summary *models.Message) error {
	_, err := s.stmtSetSummary.ExecContext(ctx, session.ID(), summary.ID, summary.Content)
	if err != nil {
		return errs.Storage("history.SetSummary", err, isTransient(err))
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, session models.Session) error {
	if _, err := s.stmtClearMessages.ExecContext(ctx, session.ID()); err != nil {
		return errs.Storage("history.Clear", err, isTransient(err))
	}
	if _, err := s.stmtClearSummary.ExecContext(ctx, session.ID()); err != nil {
		return errs.Storage("history.Clear", err, isTransient(err))
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, session models.Session, id string) error {
	if _, err := s.stmtDeleteMessage.ExecContext(ctx, session.ID(), id); err != nil {
		return errs.Storage("history.Delete", err, isTransient(err))
	}
	return nil
}

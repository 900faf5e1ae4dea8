package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/agentcore/chatcore/internal/errs"
	"github.com/agentcore/chatcore/pkg/models"
)

// PostgresStore is a durable, session-partitioned Store backed by
// database/sql + lib/pq: a composite (session_id, id) primary key with
// an index on (session_id, seq) for ordered reads.
type PostgresStore struct {
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

// Schema is the DDL PostgresStore expects to already exist.
const Schema = `
CREATE TABLE IF NOT EXISTS messages (
	session_id       TEXT NOT NULL,
	id               TEXT NOT NULL,
	seq              BIGSERIAL,
	kind             TEXT NOT NULL,
	content          TEXT NOT NULL DEFAULT '',
	name             TEXT NOT NULL DEFAULT '',
	tool_name        TEXT NOT NULL DEFAULT '',
	args_str         TEXT NOT NULL DEFAULT '',
	result_for_tool  TEXT NOT NULL DEFAULT '',
	finish_reason    TEXT NOT NULL DEFAULT '',
	prompt_tokens    INTEGER NOT NULL DEFAULT 0,
	reply_tokens     INTEGER NOT NULL DEFAULT 0,
	cost             DOUBLE PRECISION NOT NULL DEFAULT 0,
	pinned           BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (session_id, id)
);
CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages (session_id, seq);

CREATE TABLE IF NOT EXISTS summaries (
	session_id  TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// NewPostgresStore opens db and prepares every statement this store needs,
// following cockroach.go's fail-fast-on-prepare convention.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.prepare(); err != nil {
		return nil, errs.Storage("history.NewPostgresStore", err, false)
	}
	return s, nil
}

func (s *PostgresStore) prepare() error {
	var err error

	s.stmtAppend, err = s.db.Prepare(`
		INSERT INTO messages
			(session_id, id, kind, content, name, tool_name, args_str,
			 result_for_tool, finish_reason, prompt_tokens, reply_tokens,
			 cost, pinned, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}

	s.stmtMessages, err = s.db.Prepare(`
		SELECT id, kind, content, name, tool_name, args_str, result_for_tool,
		       finish_reason, prompt_tokens, reply_tokens, cost, pinned, created_at
		FROM messages WHERE session_id = $1 ORDER BY seq ASC
	`)
	if err != nil {
		return fmt.Errorf("prepare messages: %w", err)
	}

	s.stmtMessagesN, err = s.db.Prepare(`
		SELECT id, kind, content, name, tool_name, args_str, result_for_tool,
		       finish_reason, prompt_tokens, reply_tokens, cost, pinned, created_at
		FROM messages WHERE session_id = $1 ORDER BY seq DESC LIMIT $2
	`)
	if err != nil {
		return fmt.Errorf("prepare messages limit: %w", err)
	}

	s.stmtSummary, err = s.db.Prepare(`
		SELECT id, content, created_at FROM summaries WHERE session_id = $1
	`)
	if err != nil {
		return fmt.Errorf("prepare summary: %w", err)
	}

	s.stmtSetSummary, err = s.db.Prepare(`
		INSERT INTO summaries (session_id, id, content) VALUES ($1,$2,$3)
		ON CONFLICT (session_id) DO UPDATE SET id = $2, content = $3, created_at = now()
	`)
	if err != nil {
		return fmt.Errorf("prepare set summary: %w", err)
	}

	s.stmtClearMessages, err = s.db.Prepare(`DELETE FROM messages WHERE session_id = $1`)
	if err != nil {
		return fmt.Errorf("prepare clear messages: %w", err)
	}

	s.stmtClearSummary, err = s.db.Prepare(`DELETE FROM summaries WHERE session_id = $1`)
	if err != nil {
		return fmt.Errorf("prepare clear summary: %w", err)
	}

	s.stmtDeleteMessage, err = s.db.Prepare(`DELETE FROM messages WHERE session_id = $1 AND id = $2`)
	if err != nil {
		return fmt.Errorf("prepare delete message: %w", err)
	}

	return nil
}

func (s *PostgresStore) Append(ctx context.Context, session models.Session, msg *models.Message) error {
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

func (s *PostgresStore) Messages(ctx context.Context, session models.Session, limit int) ([]*models.Message, error) {
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
		// stmtMessagesN returns newest-first; restore append order.
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func scanMessage(rows *sql.Rows) (*models.Message, error) {
	var (
		m            models.Message
		kind, finish string
	)
	if err := rows.Scan(&m.ID, &kind, &m.Content, &m.Name, &m.ToolName,
		&m.ArgsStr, &m.ResultForTool, &finish, &m.PromptTokens, &m.ReplyTokens,
		&m.Cost, &m.Pinned, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Kind = models.Kind(kind)
	m.FinishReason = models.FinishReason(finish)
	return &m, nil
}

func (s *PostgresStore) Summary(ctx context.Context, session models.Session) (*models.Message, error) {
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

func (s *PostgresStore) SetSummary(ctx context.Context, session models.Session, summary *models.Message) error {
	_, err := s.stmtSetSummary.ExecContext(ctx, session.ID(), summary.ID, summary.Content)
	if err != nil {
		return errs.Storage("history.SetSummary", err, isTransient(err))
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, session models.Session) error {
	if _, err := s.stmtClearMessages.ExecContext(ctx, session.ID()); err != nil {
		return errs.Storage("history.Clear", err, isTransient(err))
	}
	if _, err := s.stmtClearSummary.ExecContext(ctx, session.ID()); err != nil {
		return errs.Storage("history.Clear", err, isTransient(err))
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, session models.Session, id string) error {
	if _, err := s.stmtDeleteMessage.ExecContext(ctx, session.ID(), id); err != nil {
		return errs.Storage("history.Delete", err, isTransient(err))
	}
	return nil
}

// isTransient classifies driver-level failures (connection loss, timeouts)
// as retryable storage errors versus permanent ones (constraint violations),
// using the same string-matching convention applied to storage failures here.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection", "timeout", "deadline", "eof", "broken pipe", "reset by peer"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

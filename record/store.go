// Package record persists conversations to SQLite: the message history a
// runner replays on follow-up turns, and the raw chunk feed for auditing
// what a provider actually streamed.
package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/loicboutet/llm-toolkit-sub000/llm"
)

// Store handles persistence of conversation messages and streamed chunks.
// It implements llm.ChunkSink and llm.HistorySupplier.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the conversation database at path and
// applies pending migrations.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log := logger.With().Str("component", "record").Logger()
	if err := runMigrations(db, log); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: log}, nil
}

// NewStore wraps an existing database handle. The caller is responsible for
// running migrations.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger.With().Str("component", "record").Logger()}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendMessage saves one message to the conversation history. Content
// blocks are stored as a JSON document so tool uses and results survive
// the round trip.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg llm.Message) error {
	content, err := json.Marshal(msg.Content)
	if err != nil {
		return fmt.Errorf("marshal content blocks: %w", err)
	}

	query := sq.Insert("messages").
		Columns("conversation_id", "role", "content", "created_at").
		Values(conversationID, string(msg.Role), string(content), time.Now().Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

// History implements llm.HistorySupplier. Messages come back in insertion
// order.
func (s *Store) History(ctx context.Context, conversationID string) ([]llm.Message, error) {
	query := sq.Select("role", "content").
		From("messages").
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("id ASC")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var messages []llm.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		var blocks []llm.ContentBlock
		if err := json.Unmarshal([]byte(content), &blocks); err != nil {
			// A corrupt row degrades to plain text rather than losing the turn.
			s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("Unparseable message content")
			blocks = []llm.ContentBlock{{Type: llm.ContentBlockTypeText, Text: content}}
		}
		messages = append(messages, llm.Message{Role: llm.MessageRole(role), Content: blocks})
	}
	return messages, rows.Err()
}

// AppendChunk implements llm.ChunkSink. Each normalized streaming event is
// stored as one row with its JSON payload.
func (s *Store) AppendChunk(ctx context.Context, conversationID string, seq int, chunk llm.Chunk) error {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}

	query := sq.Insert("chunks").
		Columns("conversation_id", "seq", "chunk_type", "payload", "created_at").
		Values(conversationID, seq, string(chunk.Type), string(payload), time.Now().Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

var (
	_ llm.ChunkSink       = (*Store)(nil)
	_ llm.HistorySupplier = (*Store)(nil)
)

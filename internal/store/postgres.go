package store

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/whatsdesk/console/internal/model"
)

//go:embed migrations.sql
var migrations embed.FS

// PostgresStore is the relational Store backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database, runs the schema migrations and seeds
// the settings singleton.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Seed the settings singleton on first boot.
	defaults := DefaultSettings(uuid.New().String())
	_, err = s.db.Exec(`
		INSERT INTO bot_settings (id, auto_responses, business_hours, auto_handoff,
			business_hours_start, business_hours_end, out_of_hours_message)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (SELECT 1 FROM bot_settings)`,
		defaults.ID, defaults.AutoResponses, defaults.BusinessHours, defaults.AutoHandoff,
		defaults.BusinessHoursStart, defaults.BusinessHoursEnd, defaults.OutOfHoursMessage)
	if err != nil {
		return errors.Wrap(err, "seed settings")
	}
	return nil
}

func persistenceErr(op string, err error) error {
	return errors.Wrapf(model.ErrPersistence, "%s: %v", op, err)
}

// Conversations

const conversationColumns = `id, customer_phone, customer_name, status, last_message, last_message_at, unread_count, created_at`

func scanConversation(row interface{ Scan(...any) error }) (*model.Conversation, error) {
	var c model.Conversation
	err := row.Scan(&c.ID, &c.CustomerPhone, &c.CustomerName, &c.Status,
		&c.LastMessage, &c.LastMessageAt, &c.UnreadCount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	return s.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations ORDER BY last_message_at DESC`)
}

func (s *PostgresStore) ListActiveConversations(ctx context.Context) ([]model.Conversation, error) {
	return s.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE status = 'active' ORDER BY last_message_at DESC`)
}

func (s *PostgresStore) queryConversations(ctx context.Context, query string, args ...any) ([]model.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("list conversations", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, persistenceErr("scan conversation", err)
		}
		convs = append(convs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list conversations", err)
	}
	return convs, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	c, err := scanConversation(s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(model.ErrNotFound, "conversation %s", id)
	}
	if err != nil {
		return nil, persistenceErr("get conversation", err)
	}
	return c, nil
}

func (s *PostgresStore) FindOrCreateConversation(ctx context.Context, phone, name string) (*model.Conversation, bool, error) {
	find := `SELECT ` + conversationColumns + ` FROM conversations WHERE customer_phone = $1 AND status <> 'closed'`

	c, err := scanConversation(s.db.QueryRowContext(ctx, find, phone))
	if err == nil {
		return c, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, persistenceErr("find conversation", err)
	}

	// The partial unique index serializes concurrent first contacts: the
	// loser's insert hits the conflict and falls back to the winner's row.
	c, err = scanConversation(s.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, customer_phone, customer_name, status)
		VALUES ($1, $2, $3, 'active')
		ON CONFLICT (customer_phone) WHERE status <> 'closed' DO NOTHING
		RETURNING `+conversationColumns,
		uuid.New().String(), phone, name))
	if err == nil {
		return c, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, persistenceErr("create conversation", err)
	}

	c, err = scanConversation(s.db.QueryRowContext(ctx, find, phone))
	if err != nil {
		return nil, false, persistenceErr("refetch conversation", err)
	}
	return c, false, nil
}

func (s *PostgresStore) UpdateConversation(ctx context.Context, id string, patch model.ConversationPatch) (*model.Conversation, error) {
	c, err := scanConversation(s.db.QueryRowContext(ctx, `
		UPDATE conversations SET
			customer_name   = COALESCE($2, customer_name),
			status          = COALESCE($3, status),
			last_message    = COALESCE($4, last_message),
			last_message_at = COALESCE($5, last_message_at),
			unread_count    = COALESCE($6, unread_count)
		WHERE id = $1
		RETURNING `+conversationColumns,
		id, patch.CustomerName, (*string)(patch.Status), patch.LastMessage,
		patch.LastMessageAt, patch.UnreadCount))
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(model.ErrNotFound, "conversation %s", id)
	}
	if err != nil {
		return nil, persistenceErr("update conversation", err)
	}
	return c, nil
}

// Messages

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, message_text, message_type, is_from_bot, timestamp
		FROM messages WHERE conversation_id = $1
		ORDER BY timestamp, id`, conversationID)
	if err != nil {
		return nil, persistenceErr("list messages", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.MessageText,
			&m.MessageType, &m.IsFromBot, &m.Timestamp); err != nil {
			return nil, persistenceErr("scan message", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list messages", err)
	}
	return msgs, nil
}

func (s *PostgresStore) CreateMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, message_text, message_type, is_from_bot, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ConversationID, msg.MessageText, msg.MessageType, msg.IsFromBot, msg.Timestamp)
	if err != nil {
		return persistenceErr("create message", err)
	}
	return nil
}

// Predefined responses

const responseColumns = `id, keywords, response_text, category, is_active, created_at, updated_at`

func (s *PostgresStore) ListResponses(ctx context.Context) ([]model.PredefinedResponse, error) {
	return s.queryResponses(ctx,
		`SELECT `+responseColumns+` FROM predefined_responses ORDER BY created_at, id`)
}

func (s *PostgresStore) ListActiveResponses(ctx context.Context) ([]model.PredefinedResponse, error) {
	return s.queryResponses(ctx,
		`SELECT `+responseColumns+` FROM predefined_responses WHERE is_active ORDER BY created_at, id`)
}

func (s *PostgresStore) queryResponses(ctx context.Context, query string, args ...any) ([]model.PredefinedResponse, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("list responses", err)
	}
	defer rows.Close()

	var resps []model.PredefinedResponse
	for rows.Next() {
		var r model.PredefinedResponse
		if err := rows.Scan(&r.ID, pq.Array(&r.Keywords), &r.ResponseText,
			&r.Category, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, persistenceErr("scan response", err)
		}
		resps = append(resps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list responses", err)
	}
	return resps, nil
}

func (s *PostgresStore) GetResponse(ctx context.Context, id string) (*model.PredefinedResponse, error) {
	var r model.PredefinedResponse
	err := s.db.QueryRowContext(ctx,
		`SELECT `+responseColumns+` FROM predefined_responses WHERE id = $1`, id).
		Scan(&r.ID, pq.Array(&r.Keywords), &r.ResponseText, &r.Category,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(model.ErrNotFound, "response %s", id)
	}
	if err != nil {
		return nil, persistenceErr("get response", err)
	}
	return &r, nil
}

func (s *PostgresStore) CreateResponse(ctx context.Context, resp *model.PredefinedResponse) error {
	now := time.Now()
	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = now
	}
	resp.UpdatedAt = now
	resp.Keywords = normalizeKeywords(resp.Keywords)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO predefined_responses (id, keywords, response_text, category, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		resp.ID, pq.Array(resp.Keywords), resp.ResponseText, resp.Category,
		resp.IsActive, resp.CreatedAt, resp.UpdatedAt)
	if err != nil {
		return persistenceErr("create response", err)
	}
	return nil
}

func (s *PostgresStore) UpdateResponse(ctx context.Context, id string, patch model.ResponsePatch) (*model.PredefinedResponse, error) {
	var keywords any
	if patch.Keywords != nil {
		keywords = pq.Array(normalizeKeywords(patch.Keywords))
	}

	var r model.PredefinedResponse
	err := s.db.QueryRowContext(ctx, `
		UPDATE predefined_responses SET
			keywords      = COALESCE($2, keywords),
			response_text = COALESCE($3, response_text),
			category      = COALESCE($4, category),
			is_active     = COALESCE($5, is_active),
			updated_at    = now()
		WHERE id = $1
		RETURNING `+responseColumns,
		id, keywords, patch.ResponseText, patch.Category, patch.IsActive).
		Scan(&r.ID, pq.Array(&r.Keywords), &r.ResponseText, &r.Category,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(model.ErrNotFound, "response %s", id)
	}
	if err != nil {
		return nil, persistenceErr("update response", err)
	}
	return &r, nil
}

func (s *PostgresStore) DeleteResponse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM predefined_responses WHERE id = $1`, id)
	if err != nil {
		return persistenceErr("delete response", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(model.ErrNotFound, "response %s", id)
	}
	return nil
}

// Settings

func (s *PostgresStore) GetSettings(ctx context.Context) (*model.BotSettings, error) {
	var b model.BotSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT id, auto_responses, business_hours, auto_handoff,
			business_hours_start, business_hours_end, out_of_hours_message
		FROM bot_settings LIMIT 1`).
		Scan(&b.ID, &b.AutoResponses, &b.BusinessHours, &b.AutoHandoff,
			&b.BusinessHoursStart, &b.BusinessHoursEnd, &b.OutOfHoursMessage)
	if err != nil {
		return nil, persistenceErr("get settings", err)
	}
	return &b, nil
}

func (s *PostgresStore) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.BotSettings, error) {
	var b model.BotSettings
	err := s.db.QueryRowContext(ctx, `
		UPDATE bot_settings SET
			auto_responses       = COALESCE($1, auto_responses),
			business_hours       = COALESCE($2, business_hours),
			auto_handoff         = COALESCE($3, auto_handoff),
			business_hours_start = COALESCE($4, business_hours_start),
			business_hours_end   = COALESCE($5, business_hours_end),
			out_of_hours_message = COALESCE($6, out_of_hours_message)
		RETURNING id, auto_responses, business_hours, auto_handoff,
			business_hours_start, business_hours_end, out_of_hours_message`,
		patch.AutoResponses, patch.BusinessHours, patch.AutoHandoff,
		patch.BusinessHoursStart, patch.BusinessHoursEnd, patch.OutOfHoursMessage).
		Scan(&b.ID, &b.AutoResponses, &b.BusinessHours, &b.AutoHandoff,
			&b.BusinessHoursStart, &b.BusinessHoursEnd, &b.OutOfHoursMessage)
	if err != nil {
		return nil, persistenceErr("update settings", err)
	}
	return &b, nil
}

// Analytics

func (s *PostgresStore) GetAnalytics(ctx context.Context, date string) (*model.Analytics, error) {
	var a model.Analytics
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, total_conversations, auto_responses, handoffs, avg_response_time, response_samples
		FROM analytics WHERE date = $1`, date).
		Scan(&a.ID, &a.Date, &a.TotalConversations, &a.AutoResponses,
			&a.Handoffs, &a.AvgResponseTime, &a.ResponseSamples)
	if err == sql.ErrNoRows {
		return &model.Analytics{Date: date}, nil
	}
	if err != nil {
		return nil, persistenceErr("get analytics", err)
	}
	return &a, nil
}

func (s *PostgresStore) IncrementAnalytics(ctx context.Context, date string, delta model.AnalyticsDelta) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analytics (id, date, total_conversations, auto_responses, handoffs)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date) DO UPDATE SET
			total_conversations = analytics.total_conversations + EXCLUDED.total_conversations,
			auto_responses      = analytics.auto_responses + EXCLUDED.auto_responses,
			handoffs            = analytics.handoffs + EXCLUDED.handoffs`,
		uuid.New().String(), date, delta.TotalConversations, delta.AutoResponses, delta.Handoffs)
	if err != nil {
		return persistenceErr("increment analytics", err)
	}
	return nil
}

func (s *PostgresStore) RecordResponseTime(ctx context.Context, date string, sample time.Duration) error {
	ms := float64(sample.Milliseconds())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analytics (id, date, avg_response_time, response_samples)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (date) DO UPDATE SET
			avg_response_time = (analytics.avg_response_time * analytics.response_samples + EXCLUDED.avg_response_time)
				/ (analytics.response_samples + 1),
			response_samples = analytics.response_samples + 1`,
		uuid.New().String(), date, ms)
	if err != nil {
		return persistenceErr("record response time", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

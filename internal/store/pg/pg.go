// Package pg implementa core.Repository sobre PostgreSQL.
//
// Alternativa al backend Mongo para despliegues que ya tienen Postgres. La
// unión de providers se resuelve dentro del propio UPDATE (array distinct
// en SQL), así la garantía de merge atómico es la misma que con $addToSet.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

func New(ctx context.Context, dsn string) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, core.Unavailable(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.Unavailable(err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return core.Unavailable(err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return core.ErrNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return core.ErrConflict
		}
		return core.Unavailable(err)
	}
}

const userCols = `uid, email, display_name, first_name, last_name, photo_url,
	providers, github_username, role, status, created_at, last_login`

func scanUser(row pgx.Row) (*types.UserIdentity, error) {
	var u types.UserIdentity
	err := row.Scan(&u.UID, &u.Email, &u.DisplayName, &u.FirstName, &u.LastName,
		&u.PhotoURL, &u.Providers, &u.GitHubUsername, &u.Role, &u.Status,
		&u.CreatedAt, &u.LastLogin)
	if err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

func (s *Store) UpsertOnLogin(ctx context.Context, u *types.UserIdentity, providerID string) (*types.UserIdentity, error) {
	role := u.Role
	if role == "" {
		role = types.RoleUser
	}
	status := u.Status
	if status == "" {
		status = types.StatusActive
	}

	// NULLIF deja que COALESCE preserve el valor previo cuando el provider
	// no trae displayName/photo. La unión distinct corre dentro del UPDATE.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO usuarios (`+userCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, ARRAY[$7], $8, $9, $10, now(), now())
		ON CONFLICT (uid) DO UPDATE SET
			email           = EXCLUDED.email,
			display_name    = COALESCE(NULLIF(EXCLUDED.display_name, ''), usuarios.display_name),
			photo_url       = COALESCE(NULLIF(EXCLUDED.photo_url, ''), usuarios.photo_url),
			github_username = COALESCE(NULLIF(EXCLUDED.github_username, ''), usuarios.github_username),
			providers       = (SELECT array_agg(DISTINCT p ORDER BY p)
			                   FROM unnest(usuarios.providers || $7) AS p),
			last_login      = now()
		RETURNING `+userCols,
		u.UID, u.Email, u.DisplayName, u.FirstName, u.LastName, u.PhotoURL,
		providerID, u.GitHubUsername, role, status)
	return scanUser(row)
}

func (s *Store) AddProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE usuarios SET
			providers = (SELECT array_agg(DISTINCT p ORDER BY p)
			             FROM unnest(providers || $2) AS p)
		WHERE uid = $1
		RETURNING `+userCols,
		uid, providerID)
	return scanUser(row)
}

func (s *Store) RemoveProvider(ctx context.Context, uid, providerID string) (*types.UserIdentity, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE usuarios SET providers = array_remove(providers, $2)
		WHERE uid = $1
		RETURNING `+userCols,
		uid, providerID)
	return scanUser(row)
}

func (s *Store) GetUser(ctx context.Context, uid string) (*types.UserIdentity, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM usuarios WHERE uid = $1`, uid))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.UserIdentity, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM usuarios WHERE email = $1`, email))
}

func (s *Store) ListUsers(ctx context.Context) ([]types.UserIdentity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userCols+` FROM usuarios ORDER BY created_at`)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []types.UserIdentity
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, wrap(rows.Err())
}

func (s *Store) CreateUser(ctx context.Context, u *types.UserIdentity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO usuarios (`+userCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.UID, u.Email, u.DisplayName, u.FirstName, u.LastName, u.PhotoURL,
		u.Providers, u.GitHubUsername, u.Role, u.Status, u.CreatedAt, u.LastLogin)
	return wrap(err)
}

func (s *Store) UpdateUser(ctx context.Context, uid string, up core.UserUpdate) (*types.UserIdentity, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE usuarios SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			email      = COALESCE($4, email),
			role       = COALESCE($5, role),
			status     = COALESCE($6, status)
		WHERE uid = $1
		RETURNING `+userCols,
		uid, up.FirstName, up.LastName, up.Email, up.Role, up.Status)
	return scanUser(row)
}

func (s *Store) DeleteUser(ctx context.Context, uid string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM usuarios WHERE uid = $1`, uid)
	if err != nil {
		return wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

const lessonCols = `id, title, description, status, language, level, created_at, updated_at`

func scanLesson(row pgx.Row) (*types.Lesson, error) {
	var l types.Lesson
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Status, &l.Language,
		&l.Level, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, wrap(err)
	}
	return &l, nil
}

func (s *Store) CreateLesson(ctx context.Context, l *types.Lesson) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lecciones (`+lessonCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.Title, l.Description, l.Status, l.Language, l.Level,
		l.CreatedAt, l.UpdatedAt)
	return wrap(err)
}

func (s *Store) GetLesson(ctx context.Context, id string) (*types.Lesson, error) {
	return scanLesson(s.pool.QueryRow(ctx,
		`SELECT `+lessonCols+` FROM lecciones WHERE id = $1`, id))
}

func (s *Store) ListLessons(ctx context.Context) ([]types.Lesson, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+lessonCols+` FROM lecciones ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []types.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, wrap(rows.Err())
}

func (s *Store) UpdateLesson(ctx context.Context, id string, up core.LessonUpdate) (*types.Lesson, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE lecciones SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			status      = COALESCE($4, status),
			language    = COALESCE($5, language),
			level       = COALESCE($6, level),
			updated_at  = $7
		WHERE id = $1
		RETURNING `+lessonCols,
		id, up.Title, up.Description, up.Status, up.Language, up.Level,
		time.Now().UTC())
	return scanLesson(row)
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM lecciones WHERE id = $1`, id)
	if err != nil {
		return wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) AppendSessionEvent(ctx context.Context, ev *types.SessionEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_logs
			(id, user_id, email, display_name, photo_url, provider, login_time,
			 user_agent, is_link_action)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.UserID, ev.Email, ev.DisplayName, ev.PhotoURL, ev.Provider,
		ev.LoginTime, ev.UserAgent, ev.IsLinkAction)
	return wrap(err)
}

func (s *Store) ListSessionEvents(ctx context.Context, f core.SessionEventFilter) ([]types.SessionEvent, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, email, display_name, photo_url, provider, login_time,
		       user_agent, is_link_action
		FROM session_logs
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR provider = $2)
		  AND (NOT $3 OR is_link_action)
		ORDER BY login_time DESC
		LIMIT $4`,
		f.UserID, f.Provider, f.OnlyLinks, limit)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []types.SessionEvent
	for rows.Next() {
		var ev types.SessionEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Email, &ev.DisplayName,
			&ev.PhotoURL, &ev.Provider, &ev.LoginTime, &ev.UserAgent,
			&ev.IsLinkAction); err != nil {
			return nil, wrap(err)
		}
		out = append(out, ev)
	}
	return out, wrap(rows.Err())
}

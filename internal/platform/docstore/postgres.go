package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores every collection in the documents table created by
// migrations/0001_documents.sql.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var data map[string]any
	err := p.pool.QueryRow(ctx, "SELECT data FROM documents WHERE collection = $1 AND id = $2", collection, id).Scan(&data)
	if err != nil {
		return Document{}, mapPgError("get", collection, err)
	}
	return Document{ID: id, Data: data}, nil
}

func (p *Postgres) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	return p.query(ctx, q, q.Limit)
}

func (p *Postgres) FindPage(ctx context.Context, q Query) (Page, error) {
	if err := q.validate(); err != nil {
		return Page{}, err
	}
	size := q.pageSize()
	docs, err := p.query(ctx, q, size+1)
	if err != nil {
		return Page{}, err
	}
	return paginate(docs, q.orderField(), size), nil
}

func (p *Postgres) query(ctx context.Context, q Query, limit int) ([]Document, error) {
	args := []any{q.Collection}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds := []string{"collection = $1"}
	for _, f := range q.scopedFilters() {
		cond, err := pgCondition(f, arg)
		if err != nil {
			return nil, newError(CodeFailedPrecondition, "query", q.Collection, err)
		}
		conds = append(conds, cond)
	}

	field := q.orderField()
	orderExpr := `id COLLATE "C"`
	if field != FieldID {
		orderExpr = fmt.Sprintf(`COALESCE(data->>%s, '') COLLATE "C"`, arg(field))
	}
	dir, cmp := "ASC", ">"
	if q.Desc {
		dir, cmp = "DESC", "<"
	}

	if q.Cursor != "" {
		c, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, newError(CodeFailedPrecondition, "query", q.Collection, err)
		}
		if field == FieldID {
			conds = append(conds, fmt.Sprintf(`id COLLATE "C" %s %s::text`, cmp, arg(c.ID)))
		} else {
			conds = append(conds, fmt.Sprintf(`(%s, id COLLATE "C") %s (%s::text, %s::text)`, orderExpr, cmp, arg(c.Value), arg(c.ID)))
		}
	}

	sql := "SELECT id, data FROM documents WHERE " + strings.Join(conds, " AND ")
	if field == FieldID {
		sql += fmt.Sprintf(" ORDER BY %s %s", orderExpr, dir)
	} else {
		sql += fmt.Sprintf(` ORDER BY %s %s, id COLLATE "C" %s`, orderExpr, dir, dir)
	}
	if limit > 0 {
		sql += " LIMIT " + arg(limit)
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError("query", q.Collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, mapPgError("query", q.Collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("query", q.Collection, err)
	}
	return docs, nil
}

func pgCondition(f Filter, arg func(any) string) (string, error) {
	switch f.Op {
	case OpEq:
		if f.Field == FieldID {
			return "id = " + arg(fmt.Sprint(f.Value)) + "::text", nil
		}
		raw, err := json.Marshal(map[string]any{f.Field: f.Value})
		if err != nil {
			return "", errInvalidFilter
		}
		return "data @> " + arg(string(raw)) + "::jsonb", nil
	case OpIn:
		if f.Field == FieldID {
			return "id = ANY(" + arg(f.Value) + "::text[])", nil
		}
		return fmt.Sprintf("data->>%s = ANY(%s::text[])", arg(f.Field), arg(f.Value)), nil
	case OpArrayContains:
		raw, err := json.Marshal(map[string]any{f.Field: []any{f.Value}})
		if err != nil {
			return "", errInvalidFilter
		}
		return "data @> " + arg(string(raw)) + "::jsonb", nil
	}
	return "", errInvalidFilter
}

func (p *Postgres) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := NewID()
	if err := applyPg(ctx, p.pool, Mutation{Kind: MutationCreate, Collection: collection, ID: id, Data: data}); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return applyPg(ctx, p.pool, Mutation{Kind: MutationSet, Collection: collection, ID: id, Data: data})
}

func (p *Postgres) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	return applyPg(ctx, p.pool, Mutation{Kind: MutationUpdate, Collection: collection, ID: id, Data: patch})
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	return applyPg(ctx, p.pool, Mutation{Kind: MutationDelete, Collection: collection, ID: id})
}

func (p *Postgres) Batch(ctx context.Context, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapPgError("batch", "", err)
	}
	for _, mut := range mutations {
		if mut.Kind == MutationCreate && mut.ID == "" {
			mut.ID = NewID()
		}
		if err := applyPg(ctx, tx, mut); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError("batch", "", err)
	}
	return nil
}

func applyPg(ctx context.Context, db execer, mut Mutation) error {
	if mut.Collection == "" {
		return newError(CodeFailedPrecondition, string(mut.Kind), "", errEmptyCollection)
	}
	switch mut.Kind {
	case MutationCreate:
		raw, err := json.Marshal(stampCreate(mut.Data, ""))
		if err != nil {
			return newError(CodeFailedPrecondition, "create", mut.Collection, err)
		}
		_, err = db.Exec(ctx, "INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)", mut.Collection, mut.ID, string(raw))
		return mapPgError("create", mut.Collection, err)
	case MutationSet:
		raw, err := json.Marshal(stampCreate(mut.Data, ""))
		if err != nil {
			return newError(CodeFailedPrecondition, "set", mut.Collection, err)
		}
		_, err = db.Exec(ctx, `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (collection, id) DO UPDATE
			SET data = jsonb_set(EXCLUDED.data, '{createdAt}', COALESCE(documents.data->'createdAt', EXCLUDED.data->'createdAt')),
			    updated_at = now()`, mut.Collection, mut.ID, string(raw))
		return mapPgError("set", mut.Collection, err)
	case MutationUpdate:
		raw, err := json.Marshal(stampUpdate(mut.Data))
		if err != nil {
			return newError(CodeFailedPrecondition, "update", mut.Collection, err)
		}
		tag, err := db.Exec(ctx, "UPDATE documents SET data = data || $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2", mut.Collection, mut.ID, string(raw))
		if err != nil {
			return mapPgError("update", mut.Collection, err)
		}
		if tag.RowsAffected() == 0 {
			return newError(CodeNotFound, "update", mut.Collection, errMissing)
		}
		return nil
	case MutationDelete:
		_, err := db.Exec(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", mut.Collection, mut.ID)
		return mapPgError("delete", mut.Collection, err)
	}
	return newError(CodeFailedPrecondition, string(mut.Kind), mut.Collection, errInvalidFilter)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return mapPgError("ping", "", p.pool.Ping(ctx))
}

func (p *Postgres) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}

func mapPgError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return newError(CodeNotFound, op, collection, errMissing)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return newError(CodeAlreadyExists, op, collection, err)
		case pgErr.Code == "42501":
			return newError(CodePermissionDenied, op, collection, err)
		case pgErr.Code == "23503" || pgErr.Code == "23514":
			return newError(CodeFailedPrecondition, op, collection, err)
		case strings.HasPrefix(pgErr.Code, "28"):
			return newError(CodeUnauthenticated, op, collection, err)
		case strings.HasPrefix(pgErr.Code, "53"):
			return newError(CodeResourceExhausted, op, collection, err)
		}
	}
	return newError(CodeUnknown, op, collection, err)
}

package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/paging"
)

const purgeBatch = 400

type Service struct {
	store docstore.Store
}

func New(store docstore.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Record(ctx context.Context, sess tenant.Session, action, entityType, entityID string, before, after any) error {
	entry := Entry{
		CompanyID:  sess.CompanyID,
		ActorID:    sess.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    Diff(before, after),
		RequestID:  sess.RequestID,
		IP:         sess.IP,
	}
	data, err := docstore.Encode(entry)
	if err != nil {
		return err
	}
	_, err = s.store.Create(ctx, docstore.AuditLogs, data)
	return err
}

func (s *Service) query(companyID string, f Filter) docstore.Query {
	q := docstore.Query{
		Collection: docstore.AuditLogs,
		TenantID:   companyID,
		OrderBy:    docstore.FieldCreatedAt,
		Desc:       true,
	}
	if f.Action != "" {
		q.Filters = append(q.Filters, docstore.Eq("action", f.Action))
	}
	if f.EntityType != "" {
		q.Filters = append(q.Filters, docstore.Eq("entityType", f.EntityType))
	}
	if f.EntityID != "" {
		q.Filters = append(q.Filters, docstore.Eq("entityId", f.EntityID))
	}
	if f.ActorID != "" {
		q.Filters = append(q.Filters, docstore.Eq("actorId", f.ActorID))
	}
	return q
}

func (s *Service) List(ctx context.Context, companyID string, f Filter, cursor string, limit int) ([]Entry, docstore.Page, error) {
	q := s.query(companyID, f)
	q.Cursor = cursor
	q.Limit = limit
	page, err := s.store.FindPage(ctx, q)
	if err != nil {
		return nil, page, err
	}
	entries, err := docstore.DecodeAll[Entry](page.Items)
	return entries, page, err
}

// ListAll walks every page of the filtered log, newest first.
func (s *Service) ListAll(ctx context.Context, companyID string, f Filter) ([]Entry, error) {
	q := s.query(companyID, f)
	q.Limit = docstore.MaxPageSize
	docs, err := paging.New(paging.Documents(s.store, q), paging.DocumentID).All(ctx)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[Entry](docs)
}

func WriteCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"created_at", "actor_id", "action", "entity_type", "entity_id", "request_id", "ip", "changes"}); err != nil {
		return err
	}
	for _, e := range entries {
		changes := ""
		if len(e.Changes) > 0 {
			raw, err := json.Marshal(e.Changes)
			if err != nil {
				return err
			}
			changes = string(raw)
		}
		if err := writer.Write([]string{e.CreatedAt, e.ActorID, e.Action, e.EntityType, e.EntityID, e.RequestID, e.IP, changes}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Purge deletes entries created before cutoff and returns how many were removed.
func (s *Service) Purge(ctx context.Context, companyID string, cutoff time.Time) (int, error) {
	limit := cutoff.UTC().Format(docstore.TimeLayout)
	q := docstore.Query{
		Collection: docstore.AuditLogs,
		TenantID:   companyID,
		OrderBy:    docstore.FieldCreatedAt,
		Limit:      purgeBatch,
	}
	loader := paging.New(paging.Documents(s.store, q), paging.DocumentID)
	if err := loader.Load(ctx); err != nil {
		return 0, err
	}

	deleted, seen := 0, 0
	for {
		items := loader.Items()
		var batch []docstore.Mutation
		done := false
		for _, doc := range items[seen:] {
			if doc.String(docstore.FieldCreatedAt) >= limit {
				done = true
				break
			}
			batch = append(batch, docstore.Mutation{Kind: docstore.MutationDelete, Collection: docstore.AuditLogs, ID: doc.ID})
		}
		seen = len(items)
		if len(batch) > 0 {
			if err := s.store.Batch(ctx, batch); err != nil {
				return deleted, err
			}
			deleted += len(batch)
		}
		if done || !loader.HasMore() {
			return deleted, nil
		}
		if err := loader.LoadMore(ctx); err != nil {
			return deleted, err
		}
	}
}

package applicants

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/admissionsflow/internal/models"
)

// FirestoreStore keeps applicants in a Firestore collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

var _ Store = (*FirestoreStore)(nil)

// NewFirestoreStore returns a store backed by the named collection.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) coll() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*models.Applicant, error) {
	snap, err := s.coll().Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get applicant %s: %w", id, mapError(err))
	}
	a, err := decode(snap)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *FirestoreStore) Create(ctx context.Context, a *models.Applicant) (string, error) {
	ref := s.coll().NewDoc()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, err := ref.Create(ctx, a); err != nil {
		return "", fmt.Errorf("create applicant: %w", mapError(err))
	}
	return ref.ID, nil
}

// List runs one query per requested status concurrently; Firestore's "in"
// operator cannot be combined with the other equality filters used here
// without a composite index per combination. The archived and verified
// flags are filtered after decoding: records written before those fields
// existed have no value to match, and an equality filter would skip them.
func (s *FirestoreStore) List(ctx context.Context, q Query) ([]models.Applicant, error) {
	if len(q.Statuses) == 0 {
		return s.runQuery(ctx, s.baseQuery(q), q)
	}

	var (
		mu  sync.Mutex
		out []models.Applicant
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, st := range q.Statuses {
		query := s.baseQuery(q).Where("status", "==", st)
		eg.Go(func() error {
			docs, err := s.runQuery(gctx, query, q)
			if err != nil {
				return fmt.Errorf("status %s: %w", st, err)
			}
			mu.Lock()
			out = append(out, docs...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *FirestoreStore) baseQuery(q Query) firestore.Query {
	query := s.coll().Query
	if q.InterviewDate != "" {
		query = query.Where("interview.date", "==", q.InterviewDate)
	}
	return query
}

func (s *FirestoreStore) runQuery(ctx context.Context, fq firestore.Query, q Query) ([]models.Applicant, error) {
	it := fq.Documents(ctx)
	defer it.Stop()

	var out []models.Applicant
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query applicants: %w", mapError(err))
		}
		a, err := decode(snap)
		if err != nil {
			return nil, err
		}
		if q.matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *FirestoreStore) Apply(ctx context.Context, id string, m Mutation) (time.Time, error) {
	if m.Empty() {
		return time.Time{}, fmt.Errorf("update applicant %s: empty mutation", id)
	}
	updates := buildUpdates(m)
	var preconds []firestore.Precondition
	if !m.IfUpdatedAt.IsZero() {
		preconds = append(preconds, firestore.LastUpdateTime(m.IfUpdatedAt))
	}
	wr, err := s.coll().Doc(id).Update(ctx, updates, preconds...)
	if err != nil {
		return time.Time{}, fmt.Errorf("update applicant %s: %w", id, mapError(err))
	}
	return wr.UpdateTime, nil
}

func buildUpdates(m Mutation) []firestore.Update {
	var updates []firestore.Update
	if m.Status != "" {
		updates = append(updates, firestore.Update{Path: "status", Value: m.Status})
	}
	completing := make(map[string]bool, len(m.Complete))
	for _, field := range m.Complete {
		completing[field] = true
	}
	if m.ScheduleField != "" {
		switch {
		case m.ClearSchedule:
			updates = append(updates, firestore.Update{Path: m.ScheduleField, Value: firestore.Delete})
		case m.Schedule != nil:
			sched := *m.Schedule
			if completing[m.ScheduleField] {
				sched.Completed = true
				delete(completing, m.ScheduleField)
			}
			updates = append(updates, firestore.Update{Path: m.ScheduleField, Value: sched})
		}
	}
	// Firestore rejects a field path together with its own prefix in one
	// update, so an appointment being replaced is completed above.
	for _, field := range []string{FieldInterview, FieldDemoTeaching} {
		if completing[field] {
			updates = append(updates, firestore.Update{
				FieldPath: firestore.FieldPath{field, "completed"},
				Value:     true,
			})
		}
	}
	if m.FinalDecision != "" {
		updates = append(updates,
			firestore.Update{Path: "finalDecision", Value: m.FinalDecision},
			firestore.Update{Path: "decidedAt", Value: firestore.ServerTimestamp},
		)
	}
	if m.Archived != nil {
		updates = append(updates, firestore.Update{Path: "archived", Value: *m.Archived})
	}
	if m.EmailVerified != nil {
		updates = append(updates, firestore.Update{Path: "emailVerified", Value: *m.EmailVerified})
	}
	keys := make([]string, 0, len(m.Requirements))
	for k := range m.Requirements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{"requirements", k},
			Value:     m.Requirements[k],
		})
	}
	return append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})
}

func (s *FirestoreStore) RecordNotification(ctx context.Context, id string, n models.Notification) error {
	if _, _, err := s.coll().Doc(id).Collection("notifications").Add(ctx, n); err != nil {
		return fmt.Errorf("record notification for %s: %w", id, mapError(err))
	}
	return nil
}

// Watch follows the collection's realtime snapshots. Remote changes are
// delivered as-is; ordering against local writes is left to the Mirror.
func (s *FirestoreStore) Watch(ctx context.Context, fn func(models.Applicant, bool), synced func()) error {
	it := s.coll().Snapshots(ctx)
	defer it.Stop()
	first := true
	for {
		qs, err := it.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("applicant snapshot listener: %w", mapError(err))
		}
		for _, ch := range qs.Changes {
			a, err := decode(ch.Doc)
			if err != nil {
				slog.Warn("Skipping undecodable applicant snapshot.", "applicantId", ch.Doc.Ref.ID, "error", err)
				continue
			}
			fn(a, ch.Kind == firestore.DocumentRemoved)
		}
		// The first snapshot carries the whole collection as additions.
		if first && synced != nil {
			synced()
		}
		first = false
	}
}

func decode(snap *firestore.DocumentSnapshot) (models.Applicant, error) {
	var a models.Applicant
	if err := snap.DataTo(&a); err != nil {
		return a, fmt.Errorf("decode applicant %s: %w", snap.Ref.ID, err)
	}
	a.ID = snap.Ref.ID
	a.UpdatedAt = snap.UpdateTime
	return a, nil
}

func mapError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.FailedPrecondition, codes.Aborted:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

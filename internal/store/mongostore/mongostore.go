// Package mongostore implements store.ValueStore on MongoDB.
//
// Values keep the uint IDs the rest of the system uses; they are allocated
// from a counters collection. Transitions are a FindOneAndUpdate filtered on
// the current status, the document-store form of the conditional UPDATE.
// Writes that also append an audit entry run in a multi-document
// transaction, so the server must be a replica set or a sharded cluster.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	valuesCollection   = "indicator_values"
	logsCollection     = "transition_logs"
	countersCollection = "counters"
)

// Store is a ValueStore backed by one MongoDB database.
type Store struct {
	values   *mongo.Collection
	logs     *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

// New wraps db. Call EnsureIndexes once at startup.
func New(db *mongo.Database) *Store {
	return &Store{
		values:   db.Collection(valuesCollection),
		logs:     db.Collection(logsCollection),
		counters: db.Collection(countersCollection),
		now:      time.Now,
	}
}

// Connect dials uri and checks the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	opts := options.Client().ApplyURI(uri).
		SetMaxPoolSize(50).
		SetConnectTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the lookup indexes used by the queries below.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.values.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "organization", Value: 1}, {Key: "indicator_code", Value: 1}, {Key: "year", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("value indexes: %w", err)
	}
	_, err = s.logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "value_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("log indexes: %w", err)
	}
	return nil
}

// nextID atomically increments the named counter.
func (s *Store) nextID(ctx context.Context, name string) (uint, error) {
	var c struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next id %s: %w", name, err)
	}
	return uint(c.Seq), nil
}

// CreateValue inserts v and assigns its ID and timestamps.
func (s *Store) CreateValue(ctx context.Context, v *models.IndicatorValue) error {
	if err := s.prepareValue(ctx, v); err != nil {
		return err
	}
	if _, err := s.values.InsertOne(ctx, toValueDoc(v)); err != nil {
		return fmt.Errorf("insert value: %w", err)
	}
	return nil
}

// CreateValueWithLog inserts v and l in one transaction.
func (s *Store) CreateValueWithLog(ctx context.Context, v *models.IndicatorValue, l *models.TransitionLog) error {
	if err := s.prepareValue(ctx, v); err != nil {
		return err
	}
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.values.InsertOne(sc, toValueDoc(v)); err != nil {
			return fmt.Errorf("insert value: %w", err)
		}
		l.ValueID = v.ID
		return s.insertLog(sc, l)
	})
}

// prepareValue allocates the ID and fills the defaults of a new value.
// An ID burnt by an aborted transaction is not reused.
func (s *Store) prepareValue(ctx context.Context, v *models.IndicatorValue) error {
	id, err := s.nextID(ctx, valuesCollection)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	v.ID = id
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	if v.Status == "" {
		v.Status = models.StatusDraft
	}
	return nil
}

// withTransaction runs fn in a session transaction. fn may be retried on
// transient errors and must be idempotent.
func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.values.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// GetValue loads one value by ID.
func (s *Store) GetValue(ctx context.Context, id uint) (*models.IndicatorValue, error) {
	var d valueDoc
	err := s.values.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v := d.model()
	return &v, nil
}

// GetValues lists values matching q, oldest first.
func (s *Store) GetValues(ctx context.Context, q store.ValueQuery) ([]models.IndicatorValue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.values.Find(ctx, valueFilter(q), opts)
	if err != nil {
		return nil, err
	}
	var docs []valueDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.IndicatorValue, len(docs))
	for i := range docs {
		out[i] = docs[i].model()
	}
	return out, nil
}

// GetValidatedValues returns validated values of the scope organization for year.
func (s *Store) GetValidatedValues(ctx context.Context, codes []string, scope models.ScopeFilter, year int) ([]models.IndicatorValue, error) {
	return s.GetValues(ctx, store.ValueQuery{
		Organization: scope.Organization,
		Codes:        codes,
		Years:        []int{year},
		Statuses:     []models.ValueStatus{models.StatusValidated},
	})
}

// TransitionValue applies the transition only if the stored status is from.
// The status change and patch.Log commit together.
func (s *Store) TransitionValue(ctx context.Context, id uint, from, to models.ValueStatus, patch store.TransitionPatch) (bool, error) {
	var applied bool
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		applied = false
		err := s.values.FindOneAndUpdate(sc,
			bson.M{"_id": int64(id), "status": string(from)},
			transitionUpdate(to, patch),
		).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("transition value %d: %w", id, err)
		}
		if patch.Log != nil {
			patch.Log.ValueID = id
			if err := s.insertLog(sc, patch.Log); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) insertLog(ctx context.Context, l *models.TransitionLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now().UTC()
	}
	if _, err := s.logs.InsertOne(ctx, toLogDoc(l)); err != nil {
		return fmt.Errorf("append transition log: %w", err)
	}
	return nil
}

// ListTransitionLogs returns the audit trail of a value, oldest first.
func (s *Store) ListTransitionLogs(ctx context.Context, valueID uint) ([]models.TransitionLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.logs.Find(ctx, bson.M{"value_id": int64(valueID)}, opts)
	if err != nil {
		return nil, err
	}
	var docs []logDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.TransitionLog, 0, len(docs))
	for _, d := range docs {
		l, err := d.model()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// valueFilter translates a query into a bson filter. Empty fields do not filter.
func valueFilter(q store.ValueQuery) bson.M {
	f := bson.M{}
	if q.Organization != "" {
		f["organization"] = q.Organization
	}
	if len(q.Codes) > 0 {
		f["indicator_code"] = bson.M{"$in": q.Codes}
	}
	if len(q.Years) > 0 {
		f["year"] = bson.M{"$in": q.Years}
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		f["status"] = bson.M{"$in": statuses}
	}
	if len(q.ProcessCodes) > 0 {
		f["process_code"] = bson.M{"$in": q.ProcessCodes}
	}
	return f
}

// transitionUpdate mirrors the columns written by the gorm store.
func transitionUpdate(to models.ValueStatus, patch store.TransitionPatch) bson.M {
	set := bson.M{
		"status":     string(to),
		"updated_at": patch.At,
	}
	switch to {
	case models.StatusSubmitted:
		set["submitted_by"] = int64(patch.ActorID)
		set["submitted_at"] = patch.At
	case models.StatusValidated, models.StatusRejected:
		set["validated_by"] = int64(patch.ActorID)
		set["validated_at"] = patch.At
	}
	if models.HasComment(patch.Comment) {
		set["comment"] = patch.Comment
	}
	return bson.M{"$set": set}
}

var _ store.ValueStore = (*Store)(nil)

// Package mongodb stores SmartSpend data as MongoDB documents, one collection
// per record kind.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"smartspend/internal/core"
	"smartspend/internal/store"
)

const (
	colExpenses = "expenses"
	colBudgets  = "budgets"
	colGoals    = "savingsGoals"
	colSettings = "userSettings"
)

type (
	expenseDoc struct {
		ID          primitive.ObjectID `bson:"_id,omitempty"`
		UserID      string             `bson:"userId"`
		Description string             `bson:"description"`
		Amount      float64            `bson:"amount"`
		Category    string             `bson:"category"`
		Date        time.Time          `bson:"date"`
		CreatedAt   time.Time          `bson:"createdAt"`
	}

	budgetDoc struct {
		ID       primitive.ObjectID `bson:"_id,omitempty"`
		UserID   string             `bson:"userId"`
		Category string             `bson:"category"`
		Amount   float64            `bson:"amount"`
		Period   string             `bson:"period"`
	}

	goalDoc struct {
		ID      primitive.ObjectID `bson:"_id,omitempty"`
		UserID  string             `bson:"userId"`
		Name    string             `bson:"name"`
		Current float64            `bson:"current"`
		Target  float64            `bson:"target"`
		Color   string             `bson:"color"`
	}

	settingsDoc struct {
		UserID        string             `bson:"_id"`
		Name          string             `bson:"name"`
		Email         string             `bson:"email"`
		Currency      string             `bson:"currency"`
		Notifications core.Notifications `bson:"notifications"`
		UpdatedAt     time.Time          `bson:"updatedAt"`
	}
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New connects to uri, selects database and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database), now: time.Now}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colExpenses: {{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}}},
		colBudgets: {{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		colGoals: {{Keys: bson.D{{Key: "userId", Value: 1}}}},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	doc := expenseDoc{
		ID:          primitive.NewObjectID(),
		UserID:      e.UserID,
		Description: e.Description,
		Amount:      e.Amount.Float(),
		Category:    string(e.Category),
		Date:        e.Date.Time,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.db.Collection(colExpenses).InsertOne(ctx, doc); err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return doc.toCore(), nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.db.Collection(colExpenses).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	var docs []expenseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.Expense{}, store.ErrNotFound
	}
	var doc expenseDoc
	err = s.db.Collection(colExpenses).FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("find expense %s: %w", id, err)
	}
	return doc.toCore(), nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	return s.deleteOne(ctx, colExpenses, userID, id)
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	cur, err := s.db.Collection(colBudgets).Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find budgets: %w", err)
	}
	var docs []budgetDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	filter := bson.M{"userId": b.UserID, "category": string(b.Category)}
	update := bson.M{"$set": bson.M{"amount": b.Amount.Float(), "period": string(b.Period)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc budgetDoc
	if err := s.db.Collection(colBudgets).FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.Budget{}, store.ErrDuplicate
		}
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return doc.toCore(), nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.deleteOne(ctx, colBudgets, userID, id)
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	cur, err := s.db.Collection(colGoals).Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find goals: %w", err)
	}
	var docs []goalDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode goals: %w", err)
	}
	out := make([]core.SavingsGoal, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) SaveGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	col := s.db.Collection(colGoals)
	doc := goalDoc{UserID: g.UserID, Name: g.Name, Current: g.Current.Float(), Target: g.Target.Float(), Color: g.Color}

	if g.ID == "" {
		doc.ID = primitive.NewObjectID()
		if _, err := col.InsertOne(ctx, doc); err != nil {
			return core.SavingsGoal{}, fmt.Errorf("insert goal: %w", err)
		}
		return doc.toCore(), nil
	}

	oid, err := primitive.ObjectIDFromHex(g.ID)
	if err != nil {
		return core.SavingsGoal{}, store.ErrNotFound
	}
	res, err := col.UpdateOne(ctx,
		bson.M{"_id": oid, "userId": g.UserID},
		bson.M{"$set": bson.M{"name": doc.Name, "current": doc.Current, "target": doc.Target, "color": doc.Color}})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	if res.MatchedCount == 0 {
		return core.SavingsGoal{}, store.ErrNotFound
	}
	return g, nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.deleteOne(ctx, colGoals, userID, id)
}

func (s *Store) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	var doc settingsDoc
	err := s.db.Collection(colSettings).FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Settings{}, store.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("find settings: %w", err)
	}
	return core.Settings{
		UserID:        doc.UserID,
		Name:          doc.Name,
		Email:         doc.Email,
		Currency:      core.Currency(doc.Currency),
		Notifications: doc.Notifications,
	}, nil
}

func (s *Store) SaveSettings(ctx context.Context, st core.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	doc := settingsDoc{
		UserID:        st.UserID,
		Name:          st.Name,
		Email:         st.Email,
		Currency:      string(st.Currency),
		Notifications: st.Notifications,
		UpdatedAt:     s.now().UTC(),
	}
	_, err := s.db.Collection(colSettings).ReplaceOne(ctx, bson.M{"_id": st.UserID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	fields := map[string]string{colExpenses: "userId", colBudgets: "userId", colGoals: "userId", colSettings: "_id"}
	for col, field := range fields {
		values, err := s.db.Collection(col).Distinct(ctx, field, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("distinct %s.%s: %w", col, field, err)
		}
		for _, v := range values {
			if id, ok := v.(string); ok && id != "" {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) deleteOne(ctx context.Context, col, userID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.db.Collection(col).DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", col, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (d expenseDoc) toCore() core.Expense {
	return core.Expense{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Amount:      core.MoneyFromFloat(d.Amount),
		Category:    core.Category(d.Category),
		Date:        core.DateOf(d.Date),
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (d budgetDoc) toCore() core.Budget {
	return core.Budget{
		ID:       d.ID.Hex(),
		Category: core.Category(d.Category),
		Amount:   core.MoneyFromFloat(d.Amount),
		Period:   core.Period(d.Period),
		UserID:   d.UserID,
	}
}

func (d goalDoc) toCore() core.SavingsGoal {
	return core.SavingsGoal{
		ID:      d.ID.Hex(),
		Name:    d.Name,
		Current: core.MoneyFromFloat(d.Current),
		Target:  core.MoneyFromFloat(d.Target),
		Color:   d.Color,
		UserID:  d.UserID,
	}
}

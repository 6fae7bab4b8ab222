package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/countrycache/countrycache/internal/country"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// caseless compares strings ignoring case (ICU strength 2).
var caseless = &options.Collation{Locale: "en", Strength: 2}

// MongoRepo implements Repository on a MongoDB collection. Numeric ids come
// from a sequence document in the sibling "counters" collection.
type MongoRepo struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

var _ Repository = (*MongoRepo)(nil)

// NewMongoRepo ensures the unique index on name and returns the repository.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("ensure name index: %w", err)
	}
	return &MongoRepo{col: col, counters: col.Database().Collection("counters")}, nil
}

func (m *MongoRepo) Upsert(ctx context.Context, c *country.Country) (*country.Country, bool, error) {
	out, updated, err := m.upsertOnce(ctx, c)
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent insert won the race; the record now exists so this is an update
		out, updated, err = m.upsertOnce(ctx, c)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("%w: %w", ErrIntegrity, err)
		}
		return nil, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return out, updated, nil
}

func (m *MongoRepo) upsertOnce(ctx context.Context, c *country.Country) (*country.Country, bool, error) {
	update := bson.M{
		"$set": bson.M{
			"capital":      c.Capital,
			"region":       c.Region,
			"population":   c.Population,
			"currencyCode": c.CurrencyCode,
			"exchangeRate": c.ExchangeRate,
			"estimatedGdp": c.EstimatedGDP,
			"flagUrl":      c.FlagURL,
		},
		"$max": bson.M{"lastRefreshedAt": c.LastRefreshedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	out := *c
	var before country.Country
	err := m.col.FindOneAndUpdate(ctx, bson.M{"name": c.Name}, update, opts).Decode(&before)
	if err == nil {
		out.ID = before.ID
		if before.LastRefreshedAt.After(out.LastRefreshedAt) {
			out.LastRefreshedAt = before.LastRefreshedAt
		}
		return &out, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	// inserted: assign the numeric id
	id, err := m.nextID(ctx)
	if err != nil {
		return nil, false, err
	}
	if _, err := m.col.UpdateOne(ctx, bson.M{"name": c.Name, "id": bson.M{"$exists": false}}, bson.M{"$set": bson.M{"id": id}}); err != nil {
		return nil, false, err
	}
	out.ID = id
	return &out, false, nil
}

func (m *MongoRepo) nextID(ctx context.Context) (int64, error) {
	var seq struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := m.counters.FindOneAndUpdate(ctx, bson.M{"_id": "countries"}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&seq)
	return seq.Seq, err
}

func (m *MongoRepo) FindByName(ctx context.Context, name string, caseInsensitive bool) (*country.Country, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: 1}})
	if caseInsensitive {
		opts.SetCollation(caseless)
	}
	var c country.Country
	if err := m.col.FindOne(ctx, bson.M{"name": name}, opts).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &c, nil
}

func (m *MongoRepo) List(ctx context.Context, f country.Filter) ([]*country.Country, error) {
	filter := bson.M{}
	if f.Region != "" {
		filter["region"] = f.Region
	}
	if f.Currency != "" {
		filter["currencyCode"] = f.Currency
	}
	opts := options.Find().SetCollation(caseless)
	switch f.Sort {
	case country.SortGDPDesc:
		opts.SetSort(bson.D{{Key: "estimatedGdp", Value: -1}, {Key: "id", Value: 1}})
	case country.SortGDPAsc:
		opts.SetSort(bson.D{{Key: "estimatedGdp", Value: 1}, {Key: "id", Value: 1}})
	default:
		opts.SetSort(bson.D{{Key: "id", Value: 1}})
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer cur.Close(ctx)
	out := []*country.Country{}
	for cur.Next(ctx) {
		var c country.Country
		if err := cur.Decode(&c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		out = append(out, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return out, nil
}

func (m *MongoRepo) DeleteByName(ctx context.Context, name string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Stats(ctx context.Context) (country.Stats, error) {
	total, err := m.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return country.Stats{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	st := country.Stats{Total: total}
	var latest country.Country
	opts := options.FindOne().SetSort(bson.D{{Key: "lastRefreshedAt", Value: -1}})
	err = m.col.FindOne(ctx, bson.M{}, opts).Decode(&latest)
	switch {
	case err == nil:
		ts := latest.LastRefreshedAt.UTC()
		st.LastRefreshedAt = &ts
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return country.Stats{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return st, nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	if err := m.col.Database().Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

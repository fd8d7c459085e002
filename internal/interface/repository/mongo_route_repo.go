package repository

import (
	"context"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRouteRepository implements RouteRepository on MongoDB
type MongoRouteRepository struct {
	collection *mongo.Collection
}

// NewMongoRouteRepository creates a new route repository
func NewMongoRouteRepository(ctx context.Context, db *mongo.Database) (repository.RouteRepository, error) {
	collection := db.Collection("routes")

	// Create unique index on the route key
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "chatId", Value: 1},
			{Key: "origin", Value: 1},
			{Key: "destination", Value: 1},
			{Key: "tripType", Value: 1},
			{Key: "minDays", Value: 1},
			{Key: "maxDays", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("idx_route_key"),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, err
	}

	return &MongoRouteRepository{
		collection: collection,
	}, nil
}

// LoadAll returns every stored route
func (r *MongoRouteRepository) LoadAll(ctx context.Context) ([]*entity.Route, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var routes []*entity.Route
	if err := cursor.All(ctx, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// Save upserts the route by id
func (r *MongoRouteRepository) Save(ctx context.Context, route *entity.Route) error {
	updateDoc := bson.M{
		"chatId":      route.ChatID,
		"origin":      route.Origin,
		"destination": route.Destination,
		"tripType":    route.TripType,
		"minDays":     route.MinDays,
		"maxDays":     route.MaxDays,
		"horizonDays": route.HorizonDays,
		"currency":    route.Currency,
		"thresholds":  route.Thresholds,
		"schedule":    route.Schedule,
		"createdAt":   route.CreatedAt,
		"updatedAt":   route.UpdatedAt,
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": route.ID},
		bson.M{"$set": updateDoc},
		opts,
	)
	return err
}

// MongoSeenAlertRepository implements SeenAlertRepository on MongoDB
type MongoSeenAlertRepository struct {
	collection *mongo.Collection
}

// NewMongoSeenAlertRepository creates a new seen-alert repository
func NewMongoSeenAlertRepository(ctx context.Context, db *mongo.Database) (repository.SeenAlertRepository, error) {
	collection := db.Collection("seen_alerts")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "key.chatId", Value: 1},
				{Key: "key.origin", Value: 1},
				{Key: "key.destination", Value: 1},
				{Key: "key.cabin", Value: 1},
				{Key: "key.priceMinor", Value: 1},
				{Key: "key.offerId", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_seen_key"),
		},
		{
			Keys: bson.M{"seenAt": 1},
		},
	})
	if err != nil {
		return nil, err
	}

	return &MongoSeenAlertRepository{
		collection: collection,
	}, nil
}

// LoadSince returns alerts seen at or after since
func (r *MongoSeenAlertRepository) LoadSince(ctx context.Context, since time.Time) ([]*entity.SeenAlert, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"seenAt": bson.M{"$gte": since}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*entity.SeenAlert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Save inserts the alert, ignoring keys already present
func (r *MongoSeenAlertRepository) Save(ctx context.Context, alert *entity.SeenAlert) error {
	filter := bson.M{
		"key.chatId":      alert.Key.ChatID,
		"key.origin":      alert.Key.Origin,
		"key.destination": alert.Key.Destination,
		"key.cabin":       alert.Key.Cabin,
		"key.priceMinor":  alert.Key.PriceMinor,
		"key.offerId":     alert.Key.OfferID,
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$setOnInsert": alert}, opts)
	return err
}

// DeleteBefore removes alerts seen before the cutoff
func (r *MongoSeenAlertRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"seenAt": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

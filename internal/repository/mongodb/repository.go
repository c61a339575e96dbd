// Package mongodb implements the repository boundary over MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/repository"
)

const (
	ordersCollection    = "orders"
	stageLogsCollection = "stage_logs"
	batchesCollection   = "batches"
	summariesCollection = "daily_summaries"
)

// Repository implements the order, stage-log, batch and summary stores
// against a single MongoDB database.
type Repository struct {
	client *mongo.Client
	dbName string
}

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, uri string, dbName string) (*Repository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{client: client, dbName: dbName}, nil
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *Repository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// InsertOrder stores the order, assigning an id when absent.
func (r *Repository) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if _, err := r.collection(ordersCollection).InsertOne(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

// UpdateOrder applies the non-nil fields of the update and returns the new document.
func (r *Repository) UpdateOrder(ctx context.Context, id string, update models.OrderUpdate) (models.Order, error) {
	set := bson.M{}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Priority != nil {
		set["priority"] = *update.Priority
	}
	if update.PlannedQuantity != nil {
		set["planned_quantity"] = *update.PlannedQuantity
	}
	if update.TargetDate != nil {
		set["target_date"] = *update.TargetDate
	}

	var order models.Order
	if len(set) == 0 {
		err := r.collection(ordersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&order)
		return order, mapErr(err, "find order")
	}

	after := options.After
	err := r.collection(ordersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, &options.FindOneAndUpdateOptions{ReturnDocument: &after}).
		Decode(&order)
	return order, mapErr(err, "update order")
}

// FindOrderByID returns the order or repository.ErrNotFound.
func (r *Repository) FindOrderByID(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := r.collection(ordersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	return order, mapErr(err, "find order")
}

// FindOrderByLotCode returns the order carrying the lot code.
func (r *Repository) FindOrderByLotCode(ctx context.Context, lotCode string) (models.Order, error) {
	var order models.Order
	err := r.collection(ordersCollection).FindOne(ctx, bson.M{"lot_code": lotCode}).Decode(&order)
	return order, mapErr(err, "find order by lot code")
}

// FindOrdersByStatus returns every order in the given status.
func (r *Repository) FindOrdersByStatus(ctx context.Context, status models.Status) ([]models.Order, error) {
	return r.findOrders(ctx, bson.M{"status": status})
}

// FindActiveOrders returns every non-terminal order.
func (r *Repository) FindActiveOrders(ctx context.Context) ([]models.Order, error) {
	filter := bson.M{"status": bson.M{"$nin": bson.A{models.StatusCompleted, models.StatusCancelled}}}
	return r.findOrders(ctx, filter)
}

// FindLotCodes returns every stored lot code with the given prefix.
func (r *Repository) FindLotCodes(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{"lot_code": bson.M{"$regex": primitive.Regex{Pattern: "^" + prefix}}}
	opts := options.Find().SetProjection(bson.M{"lot_code": 1})

	cursor, err := r.collection(ordersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find lot codes: %w", err)
	}
	defer cursor.Close(ctx)

	var codes []string
	for cursor.Next(ctx) {
		var doc struct {
			LotCode string `bson:"lot_code"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode lot code: %w", err)
		}
		codes = append(codes, doc.LotCode)
	}
	return codes, cursor.Err()
}

func (r *Repository) findOrders(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cursor, err := r.collection(ordersCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// InsertStageLog stores the log, assigning an id when absent.
func (r *Repository) InsertStageLog(ctx context.Context, log models.StageLog) (models.StageLog, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if _, err := r.collection(stageLogsCollection).InsertOne(ctx, log); err != nil {
		return models.StageLog{}, fmt.Errorf("insert stage log: %w", err)
	}
	return log, nil
}

// UpdateStageLog applies the non-nil fields of the update and returns the new document.
func (r *Repository) UpdateStageLog(ctx context.Context, id string, update models.StageLogUpdate) (models.StageLog, error) {
	set := bson.M{}
	unset := bson.M{}
	if update.OperatorRef != nil {
		set["operator_ref"] = *update.OperatorRef
	}
	if update.InputQuantity != nil {
		set["input_quantity"] = *update.InputQuantity
	}
	if update.OutputQuantity != nil {
		set["output_quantity"] = *update.OutputQuantity
	}
	if update.LossQuantity != nil {
		set["loss_quantity"] = *update.LossQuantity
	}
	if update.Quality != nil {
		set["quality"] = *update.Quality
	}
	if update.Photos != nil {
		set["photos"] = update.Photos
	}
	if update.Mixing != nil {
		set["mixing"] = *update.Mixing
	}
	if update.ClearMixing {
		delete(set, "mixing")
		unset["mixing"] = ""
	}
	if update.ClosedAt != nil {
		set["closed_at"] = *update.ClosedAt
	}

	mutation := bson.M{}
	if len(set) > 0 {
		mutation["$set"] = set
	}
	if len(unset) > 0 {
		mutation["$unset"] = unset
	}

	var log models.StageLog
	if len(mutation) == 0 {
		err := r.collection(stageLogsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&log)
		return log, mapErr(err, "find stage log")
	}

	after := options.After
	err := r.collection(stageLogsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, mutation, &options.FindOneAndUpdateOptions{ReturnDocument: &after}).
		Decode(&log)
	return log, mapErr(err, "update stage log")
}

// FindStageLogByID returns the log or repository.ErrNotFound.
func (r *Repository) FindStageLogByID(ctx context.Context, id string) (models.StageLog, error) {
	var log models.StageLog
	err := r.collection(stageLogsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	return log, mapErr(err, "find stage log")
}

// FindStageLogsByOrder returns the order's logs sorted by open time ascending.
func (r *Repository) FindStageLogsByOrder(ctx context.Context, orderID string) ([]models.StageLog, error) {
	opts := options.Find().SetSort(bson.M{"opened_at": 1})
	cursor, err := r.collection(stageLogsCollection).Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find stage logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []models.StageLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode stage logs: %w", err)
	}
	return logs, nil
}

// InsertBatch stores the batch, assigning an id when absent.
func (r *Repository) InsertBatch(ctx context.Context, batch models.Batch) (models.Batch, error) {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if _, err := r.collection(batchesCollection).InsertOne(ctx, batch); err != nil {
		return models.Batch{}, fmt.Errorf("insert batch: %w", err)
	}
	return batch, nil
}

// UpdateBatch applies the non-nil fields of the update and returns the new document.
func (r *Repository) UpdateBatch(ctx context.Context, id string, update models.BatchUpdate) (models.Batch, error) {
	set := bson.M{}
	if update.RecipeRef != nil {
		set["recipe_ref"] = *update.RecipeRef
	}
	if update.MixerRef != nil {
		set["mixer_ref"] = *update.MixerRef
	}
	if update.BatchCount != nil {
		set["batch_count"] = *update.BatchCount
	}
	if update.Temperature != nil {
		set["temperature"] = *update.Temperature
	}
	if update.Texture != nil {
		set["texture"] = *update.Texture
	}
	if update.SlowMixMinutes != nil {
		set["slow_mix_minutes"] = *update.SlowMixMinutes
	}
	if update.FastMixMinutes != nil {
		set["fast_mix_minutes"] = *update.FastMixMinutes
	}
	if update.Ingredients != nil {
		set["ingredients"] = update.Ingredients
	}

	var batch models.Batch
	if len(set) == 0 {
		err := r.collection(batchesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
		return batch, mapErr(err, "find batch")
	}

	after := options.After
	err := r.collection(batchesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, &options.FindOneAndUpdateOptions{ReturnDocument: &after}).
		Decode(&batch)
	return batch, mapErr(err, "update batch")
}

// DeleteBatch removes the batch or returns repository.ErrNotFound.
func (r *Repository) DeleteBatch(ctx context.Context, id string) error {
	res, err := r.collection(batchesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// FindBatchByID returns the batch or repository.ErrNotFound.
func (r *Repository) FindBatchByID(ctx context.Context, id string) (models.Batch, error) {
	var batch models.Batch
	err := r.collection(batchesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	return batch, mapErr(err, "find batch")
}

// FindBatchesByStageLog returns the log's batches sorted by creation time ascending.
func (r *Repository) FindBatchesByStageLog(ctx context.Context, stageLogID string) ([]models.Batch, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cursor, err := r.collection(batchesCollection).Find(ctx, bson.M{"stage_log_id": stageLogID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find batches: %w", err)
	}
	defer cursor.Close(ctx)

	var batches []models.Batch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("decode batches: %w", err)
	}
	return batches, nil
}

// SaveDailySummary stores a daily production summary.
func (r *Repository) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	if _, err := r.collection(summariesCollection).InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("insert daily summary: %w", err)
	}
	return nil
}

func mapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/aquafarm/internal/domain/models"
	"github.com/mamadbah2/aquafarm/internal/repository"
)

const (
	warehousesColl = "warehouses"
	movementsColl  = "stock_movements"
	pondsColl      = "ponds"
	batchesColl    = "fish_batches"
	biometryColl   = "biometry_samples"
	mortalityColl  = "mortality_events"
	feedingsColl   = "feeding_events"
	reportsColl    = "daily_reports"
	countersColl   = "counters"
)

// MongoDBRepository implements repository.Store on MongoDB. Quantities are
// stored as canonical decimal strings so the compare-and-set filters match
// by exact value, and movement sequence numbers come from an atomically
// incremented counter document.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{client: client, dbName: dbName}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// ensureIndexes backs the one-ACTIVE-batch-per-pond invariant with a partial
// unique index, and keeps history pages cheap.
func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll(batchesColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pond_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": string(models.BatchActive)}),
	})
	if err != nil {
		return fmt.Errorf("create active-batch index: %w", err)
	}

	_, err = r.coll(movementsColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "seq", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create movement seq index: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) coll(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

type warehouseDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Unit      string    `bson:"unit"`
	Quantity  string    `bson:"quantity"`
	Kind      string    `bson:"kind"`
	ParentID  string    `bson:"parent_id,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d warehouseDoc) toModel() (models.Warehouse, error) {
	qty, err := decimal.NewFromString(d.Quantity)
	if err != nil {
		return models.Warehouse{}, fmt.Errorf("corrupt quantity %q on warehouse %s: %w", d.Quantity, d.ID, err)
	}
	return models.Warehouse{
		ID:        d.ID,
		Name:      d.Name,
		Unit:      d.Unit,
		Quantity:  qty,
		Kind:      models.WarehouseKind(d.Kind),
		ParentID:  d.ParentID,
		CreatedAt: d.CreatedAt,
	}, nil
}

func (r *MongoDBRepository) CreateWarehouse(ctx context.Context, w models.Warehouse) error {
	if w.Quantity.IsNegative() {
		return repository.ErrInvalidQuantity
	}
	doc := warehouseDoc{
		ID:        w.ID,
		Name:      w.Name,
		Unit:      w.Unit,
		Quantity:  w.Quantity.String(),
		Kind:      string(w.Kind),
		ParentID:  w.ParentID,
		CreatedAt: w.CreatedAt,
	}
	if _, err := r.coll(warehousesColl).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetWarehouse(ctx context.Context, id string) (models.Warehouse, error) {
	var doc warehouseDoc
	err := r.coll(warehousesColl).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Warehouse{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Warehouse{}, fmt.Errorf("find warehouse %s: %w", id, err)
	}
	return doc.toModel()
}

func (r *MongoDBRepository) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	cursor, err := r.coll(warehousesColl).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Warehouse
	for cursor.Next(ctx) {
		var doc warehouseDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode warehouse: %w", err)
		}
		w, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, cursor.Err()
}

// CompareAndSetQuantity performs the conditional write with a filtered
// update: the document must still carry the expected quantity for the write
// to match. All quantity writes funnel through here, so the stored string is
// always the canonical decimal form and filter equality is exact.
func (r *MongoDBRepository) CompareAndSetQuantity(ctx context.Context, id string, expected, newQty decimal.Decimal) error {
	if newQty.IsNegative() {
		return repository.ErrInvalidQuantity
	}

	res, err := r.coll(warehousesColl).UpdateOne(ctx,
		bson.M{"_id": id, "quantity": expected.String()},
		bson.M{"$set": bson.M{"quantity": newQty.String()}},
	)
	if err != nil {
		return fmt.Errorf("compare-and-set warehouse %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		count, err := r.coll(warehousesColl).CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("verify warehouse %s: %w", id, err)
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

type movementDoc struct {
	ID         string    `bson:"_id"`
	Kind       string    `bson:"kind"`
	SourceID   string    `bson:"source_id,omitempty"`
	DestID     string    `bson:"dest_id,omitempty"`
	Amount     string    `bson:"amount"`
	ActorID    string    `bson:"actor_id"`
	Note       string    `bson:"note,omitempty"`
	Seq        int64     `bson:"seq"`
	RecordedAt time.Time `bson:"recorded_at"`
}

func (d movementDoc) toModel() (models.StockMovement, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return models.StockMovement{}, fmt.Errorf("corrupt amount %q on movement %s: %w", d.Amount, d.ID, err)
	}
	return models.StockMovement{
		ID:         d.ID,
		Kind:       models.MovementKind(d.Kind),
		SourceID:   d.SourceID,
		DestID:     d.DestID,
		Amount:     amount,
		ActorID:    d.ActorID,
		Note:       d.Note,
		Seq:        d.Seq,
		RecordedAt: d.RecordedAt,
	}, nil
}

func (r *MongoDBRepository) nextSeq(ctx context.Context, counter string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := r.coll(countersColl).FindOneAndUpdate(ctx,
		bson.M{"_id": counter},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("increment %s counter: %w", counter, err)
	}
	return doc.Seq, nil
}

func (r *MongoDBRepository) AppendMovement(ctx context.Context, m models.StockMovement) (models.StockMovement, error) {
	seq, err := r.nextSeq(ctx, "stock_movements")
	if err != nil {
		return models.StockMovement{}, err
	}
	m.Seq = seq

	doc := movementDoc{
		ID:         m.ID,
		Kind:       string(m.Kind),
		SourceID:   m.SourceID,
		DestID:     m.DestID,
		Amount:     m.Amount.String(),
		ActorID:    m.ActorID,
		Note:       m.Note,
		Seq:        m.Seq,
		RecordedAt: m.RecordedAt,
	}
	if _, err := r.coll(movementsColl).InsertOne(ctx, doc); err != nil {
		return models.StockMovement{}, fmt.Errorf("insert movement: %w", err)
	}
	return m, nil
}

func (r *MongoDBRepository) MovementHistory(ctx context.Context, warehouseID string, limit int, beforeSeq int64) ([]models.StockMovement, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"source_id": warehouseID},
		bson.M{"dest_id": warehouseID},
	}}
	if beforeSeq > 0 {
		filter["seq"] = bson.M{"$lt": beforeSeq}
	}

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll(movementsColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find movements for %s: %w", warehouseID, err)
	}
	defer cursor.Close(ctx)

	return decodeMovements(ctx, cursor)
}

func (r *MongoDBRepository) MovementsBetween(ctx context.Context, from, to time.Time) ([]models.StockMovement, error) {
	cursor, err := r.coll(movementsColl).Find(ctx,
		bson.M{"recorded_at": bson.M{"$gte": from, "$lt": to}},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find movements between %s and %s: %w", from, to, err)
	}
	defer cursor.Close(ctx)

	return decodeMovements(ctx, cursor)
}

func decodeMovements(ctx context.Context, cursor *mongo.Cursor) ([]models.StockMovement, error) {
	var out []models.StockMovement
	for cursor.Next(ctx) {
		var doc movementDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode movement: %w", err)
		}
		m, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, cursor.Err()
}

type pondDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	WarehouseID string    `bson:"warehouse_id"`
	Population  int64     `bson:"population"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (r *MongoDBRepository) CreatePond(ctx context.Context, p models.Pond) error {
	doc := pondDoc{
		ID:          p.ID,
		Name:        p.Name,
		WarehouseID: p.WarehouseID,
		Population:  p.Population,
		CreatedAt:   p.CreatedAt,
	}
	if _, err := r.coll(pondsColl).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert pond: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) GetPond(ctx context.Context, id string) (models.Pond, error) {
	var doc pondDoc
	err := r.coll(pondsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Pond{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Pond{}, fmt.Errorf("find pond %s: %w", id, err)
	}
	return models.Pond(doc), nil
}

func (r *MongoDBRepository) ListPonds(ctx context.Context) ([]models.Pond, error) {
	cursor, err := r.coll(pondsColl).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list ponds: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Pond
	for cursor.Next(ctx) {
		var doc pondDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode pond: %w", err)
		}
		out = append(out, models.Pond(doc))
	}
	return out, cursor.Err()
}

func (r *MongoDBRepository) CompareAndSetPopulation(ctx context.Context, pondID string, expected, newPop int64) error {
	if newPop < 0 {
		return repository.ErrInvalidQuantity
	}

	res, err := r.coll(pondsColl).UpdateOne(ctx,
		bson.M{"_id": pondID, "population": expected},
		bson.M{"$set": bson.M{"population": newPop}},
	)
	if err != nil {
		return fmt.Errorf("compare-and-set pond %s: %w", pondID, err)
	}
	if res.MatchedCount == 0 {
		count, err := r.coll(pondsColl).CountDocuments(ctx, bson.M{"_id": pondID})
		if err != nil {
			return fmt.Errorf("verify pond %s: %w", pondID, err)
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	// Mirror the authoritative pond count onto the ACTIVE batch.
	_, err = r.coll(batchesColl).UpdateOne(ctx,
		bson.M{"pond_id": pondID, "status": string(models.BatchActive)},
		bson.M{"$set": bson.M{"population": newPop}},
	)
	if err != nil {
		return fmt.Errorf("mirror population onto batch: %w", err)
	}
	return nil
}

type batchDoc struct {
	ID                string    `bson:"_id"`
	PondID            string    `bson:"pond_id"`
	Species           string    `bson:"species"`
	InitialPopulation int64     `bson:"initial_population"`
	Population        int64     `bson:"population"`
	AvgWeightGrams    string    `bson:"avg_weight_grams"`
	Status            string    `bson:"status"`
	StockedAt         time.Time `bson:"stocked_at"`
}

func (d batchDoc) toModel() (models.FishBatch, error) {
	weight, err := decimal.NewFromString(d.AvgWeightGrams)
	if err != nil {
		return models.FishBatch{}, fmt.Errorf("corrupt weight %q on batch %s: %w", d.AvgWeightGrams, d.ID, err)
	}
	return models.FishBatch{
		ID:                d.ID,
		PondID:            d.PondID,
		Species:           d.Species,
		InitialPopulation: d.InitialPopulation,
		Population:        d.Population,
		AvgWeightGrams:    weight,
		Status:            models.BatchStatus(d.Status),
		StockedAt:         d.StockedAt,
	}, nil
}

func (r *MongoDBRepository) CreateBatch(ctx context.Context, b models.FishBatch) error {
	if _, err := r.GetPond(ctx, b.PondID); err != nil {
		return err
	}

	doc := batchDoc{
		ID:                b.ID,
		PondID:            b.PondID,
		Species:           b.Species,
		InitialPopulation: b.InitialPopulation,
		Population:        b.Population,
		AvgWeightGrams:    b.AvgWeightGrams.String(),
		Status:            string(b.Status),
		StockedAt:         b.StockedAt,
	}
	if _, err := r.coll(batchesColl).InsertOne(ctx, doc); err != nil {
		// The partial unique index rejects a second ACTIVE batch per pond.
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrActiveBatchExists
		}
		return fmt.Errorf("insert batch: %w", err)
	}

	_, err := r.coll(pondsColl).UpdateOne(ctx,
		bson.M{"_id": b.PondID},
		bson.M{"$set": bson.M{"population": b.InitialPopulation}},
	)
	if err != nil {
		return fmt.Errorf("set pond population after stocking: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) ActiveBatch(ctx context.Context, pondID string) (models.FishBatch, error) {
	var doc batchDoc
	err := r.coll(batchesColl).FindOne(ctx,
		bson.M{"pond_id": pondID, "status": string(models.BatchActive)},
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FishBatch{}, repository.ErrNotFound
	}
	if err != nil {
		return models.FishBatch{}, fmt.Errorf("find active batch for pond %s: %w", pondID, err)
	}
	return doc.toModel()
}

func (r *MongoDBRepository) SetBatchAvgWeight(ctx context.Context, batchID string, grams decimal.Decimal) error {
	if grams.IsNegative() {
		return repository.ErrInvalidQuantity
	}

	res, err := r.coll(batchesColl).UpdateOne(ctx,
		bson.M{"_id": batchID},
		bson.M{"$set": bson.M{"avg_weight_grams": grams.String()}},
	)
	if err != nil {
		return fmt.Errorf("update batch %s weight: %w", batchID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type biometryDoc struct {
	ID             string    `bson:"_id"`
	PondID         string    `bson:"pond_id"`
	BatchID        string    `bson:"batch_id"`
	AvgWeightGrams string    `bson:"avg_weight_grams"`
	SampleSize     int       `bson:"sample_size"`
	Notes          string    `bson:"notes,omitempty"`
	RecordedAt     time.Time `bson:"recorded_at"`
}

func (r *MongoDBRepository) AppendBiometry(ctx context.Context, s models.BiometrySample) error {
	doc := biometryDoc{
		ID:             s.ID,
		PondID:         s.PondID,
		BatchID:        s.BatchID,
		AvgWeightGrams: s.AvgWeightGrams.String(),
		SampleSize:     s.SampleSize,
		Notes:          s.Notes,
		RecordedAt:     s.RecordedAt,
	}
	if _, err := r.coll(biometryColl).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert biometry sample: %w", err)
	}
	return nil
}

type mortalityDoc struct {
	ID         string    `bson:"_id"`
	PondID     string    `bson:"pond_id"`
	BatchID    string    `bson:"batch_id"`
	DeadCount  int64     `bson:"dead_count"`
	Cause      string    `bson:"cause,omitempty"`
	RecordedAt time.Time `bson:"recorded_at"`
}

func (r *MongoDBRepository) AppendMortality(ctx context.Context, e models.MortalityEvent) error {
	doc := mortalityDoc{
		ID:         e.ID,
		PondID:     e.PondID,
		BatchID:    e.BatchID,
		DeadCount:  e.DeadCount,
		Cause:      e.Cause,
		RecordedAt: e.RecordedAt,
	}
	if _, err := r.coll(mortalityColl).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert mortality event: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) MortalityBetween(ctx context.Context, from, to time.Time) (int64, error) {
	cursor, err := r.coll(mortalityColl).Find(ctx,
		bson.M{"recorded_at": bson.M{"$gte": from, "$lt": to}},
	)
	if err != nil {
		return 0, fmt.Errorf("find mortality events: %w", err)
	}
	defer cursor.Close(ctx)

	var total int64
	for cursor.Next(ctx) {
		var doc mortalityDoc
		if err := cursor.Decode(&doc); err != nil {
			return 0, fmt.Errorf("decode mortality event: %w", err)
		}
		total += doc.DeadCount
	}
	return total, cursor.Err()
}

type feedingDoc struct {
	ID          string    `bson:"_id"`
	PondID      string    `bson:"pond_id"`
	WarehouseID string    `bson:"warehouse_id"`
	AmountKg    string    `bson:"amount_kg"`
	ActorID     string    `bson:"actor_id"`
	Notes       string    `bson:"notes,omitempty"`
	RecordedAt  time.Time `bson:"recorded_at"`
}

func (r *MongoDBRepository) AppendFeeding(ctx context.Context, e models.FeedingEvent) error {
	doc := feedingDoc{
		ID:          e.ID,
		PondID:      e.PondID,
		WarehouseID: e.WarehouseID,
		AmountKg:    e.AmountKg.String(),
		ActorID:     e.ActorID,
		Notes:       e.Notes,
		RecordedAt:  e.RecordedAt,
	}
	if _, err := r.coll(feedingsColl).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert feeding event: %w", err)
	}
	return nil
}

// SaveDailyReport saves a daily report to the database.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	if _, err := r.coll(reportsColl).InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert daily report: %w", err)
	}
	return nil
}

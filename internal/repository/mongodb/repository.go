package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/salesboard/internal/domain/models"
)

// MongoDBRepository stores monthly reports and view preferences.
type MongoDBRepository struct {
	client      *mongo.Client
	dbName      string
	reportsColl string
	prefsColl   string
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

	return &MongoDBRepository{
		client:      client,
		dbName:      dbName,
		reportsColl: "monthly_reports",
		prefsColl:   "preferences",
	}, nil
}

type reportLineDocument struct {
	AttrNumber string               `bson:"attr_number"`
	Name       string               `bson:"name"`
	Price      primitive.Decimal128 `bson:"price"`
	Qty        int                  `bson:"qty"`
	Total      primitive.Decimal128 `bson:"total"`
	Discounted primitive.Decimal128 `bson:"discounted"`
}

type dayReportDocument struct {
	Date       string               `bson:"date"`
	Label      string               `bson:"label"`
	Lines      []reportLineDocument `bson:"lines"`
	Total      primitive.Decimal128 `bson:"total"`
	Discounted primitive.Decimal128 `bson:"discounted"`
}

type reportDocument struct {
	Month           string               `bson:"_id"`
	Title           string               `bson:"title"`
	DiscountRate    primitive.Decimal128 `bson:"discount_rate"`
	Days            []dayReportDocument  `bson:"days"`
	GrandTotal      primitive.Decimal128 `bson:"grand_total"`
	GrandDiscounted primitive.Decimal128 `bson:"grand_discounted"`
	CreatedAt       time.Time            `bson:"created_at"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// decimal.String never yields an unparsable value within Decimal128 range.
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func toReportDocument(report models.MonthlyReport) reportDocument {
	doc := reportDocument{
		Month:           report.Month,
		Title:           report.Title,
		DiscountRate:    toDecimal128(report.DiscountRate),
		GrandTotal:      toDecimal128(report.GrandTotal),
		GrandDiscounted: toDecimal128(report.GrandDiscounted),
		CreatedAt:       report.CreatedAt,
	}
	for _, day := range report.Days {
		d := dayReportDocument{
			Date:       day.Date,
			Label:      day.Label,
			Total:      toDecimal128(day.Total),
			Discounted: toDecimal128(day.Discounted),
		}
		for _, line := range day.Lines {
			d.Lines = append(d.Lines, reportLineDocument{
				AttrNumber: line.AttrNumber,
				Name:       line.Name,
				Price:      toDecimal128(line.Price),
				Qty:        line.Qty,
				Total:      toDecimal128(line.Total),
				Discounted: toDecimal128(line.Discounted),
			})
		}
		doc.Days = append(doc.Days, d)
	}
	return doc
}

// SaveMonthlyReport stores the report, replacing an earlier one for the same
// month.
func (r *MongoDBRepository) SaveMonthlyReport(ctx context.Context, report models.MonthlyReport) error {
	collection := r.client.Database(r.dbName).Collection(r.reportsColl)
	doc := toReportDocument(report)
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": doc.Month}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save monthly report %s: %w", report.Month, err)
	}
	return nil
}

type preferenceDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// Get reads a preference value.
func (r *MongoDBRepository) Get(ctx context.Context, key string) (string, bool, error) {
	collection := r.client.Database(r.dbName).Collection(r.prefsColl)

	var doc preferenceDocument
	err := collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return doc.Value, true, nil
}

// Set writes a preference value.
func (r *MongoDBRepository) Set(ctx context.Context, key, value string) error {
	collection := r.client.Database(r.dbName).Collection(r.prefsColl)
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

package repo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/healthplus/backend/pkg/constants"
)

// EnsureIndexes creates the unique and lookup indexes. Safe to run repeatedly.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		constants.CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		constants.CollectionDoctors: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "verificationStatus", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		constants.CollectionAppointments: {
			{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: -1}}},
		},
		constants.CollectionPrescriptions: {
			{Keys: bson.D{{Key: "appointmentId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "patientId", Value: 1}}},
			{Keys: bson.D{{Key: "doctorId", Value: 1}}},
		},
	}

	for coll, models := range specs {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		slog.Debug("indexes ensured", "collection", coll, "indexes", names)
	}
	return nil
}

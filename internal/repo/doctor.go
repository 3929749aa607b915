package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/healthplus/backend/pkg/constants"
)

type doctorRepo struct {
	coll *mongo.Collection
}

func newDoctorRepo(db *mongo.Database) *doctorRepo {
	return &doctorRepo{coll: db.Collection(constants.CollectionDoctors)}
}

func (r *doctorRepo) Create(ctx context.Context, d *Doctor) error {
	now := time.Now().UTC()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.VerificationStatus == "" {
		d.VerificationStatus = StatusPending
	}
	d.CreatedAt, d.UpdatedAt = now, now

	_, err := r.coll.InsertOne(ctx, d)
	return translate(err)
}

func (r *doctorRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Doctor, error) {
	var d Doctor
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *doctorRepo) FindByEmail(ctx context.Context, email string) (*Doctor, error) {
	var d Doctor
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *doctorRepo) List(ctx context.Context, status *VerificationStatus) ([]Doctor, error) {
	filter := bson.M{}
	if status != nil {
		filter["verificationStatus"] = *status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Doctor, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *doctorRepo) Transition(ctx context.Context, id primitive.ObjectID, from, to VerificationStatus, reason *string) (*Doctor, error) {
	set := bson.M{"verificationStatus": to, "updatedAt": time.Now().UTC()}
	update := bson.M{"$set": set}
	if reason != nil {
		set["rejectionReason"] = *reason
	} else {
		update["$unset"] = bson.M{"rejectionReason": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d Doctor
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "verificationStatus": from}, update, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the doctor is gone or its status moved on.
		n, cerr := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		if cerr != nil {
			return nil, translate(cerr)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *doctorRepo) SaveProfile(ctx context.Context, id primitive.ObjectID, p *DoctorProfile, reset ...VerificationStatus) (*Doctor, error) {
	now := time.Now().UTC()
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	// An update pipeline lets the status reset depend on the stored status
	// within the same write.
	set := bson.D{
		{Key: "profile", Value: bson.D{{Key: "$literal", Value: p}}},
		{Key: "updatedAt", Value: now},
	}
	if len(reset) > 0 {
		inReset := bson.D{{Key: "$in", Value: bson.A{"$verificationStatus", reset}}}
		set = append(set, bson.E{Key: "verificationStatus", Value: bson.D{{Key: "$cond", Value: bson.A{
			inReset, StatusPending, "$verificationStatus",
		}}}})
		set = append(set, bson.E{Key: "rejectionReason", Value: bson.D{{Key: "$cond", Value: bson.A{
			inReset, "$$REMOVE", "$rejectionReason",
		}}}})
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d Doctor
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *doctorRepo) UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepo) Stats(ctx context.Context) (DoctorStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$verificationStatus"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return DoctorStats{}, err
	}

	var rows []struct {
		Status VerificationStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return DoctorStats{}, err
	}

	counts := make(map[VerificationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return StatsFromCounts(counts), nil
}

// StatsFromCounts folds per-status counts. Total is the sum of the three
// known buckets so it always equals pending+verified+rejected.
func StatsFromCounts(counts map[VerificationStatus]int64) DoctorStats {
	s := DoctorStats{
		Pending:  counts[StatusPending],
		Verified: counts[StatusVerified],
		Rejected: counts[StatusRejected],
	}
	s.Total = s.Pending + s.Verified + s.Rejected
	return s
}

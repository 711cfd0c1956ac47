package journal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoDatabase is used when the URI names no database.
const DefaultMongoDatabase = "boxaug"

// MongoJournal stores runs and entries in the "runs" and "entries"
// collections of a MongoDB database.
type MongoJournal struct {
	client  *mongo.Client
	runs    *mongo.Collection
	entries *mongo.Collection
}

// OpenMongo connects to uri and prepares the collections. The database is
// taken from the URI path, for example mongodb://host/mydb.
func OpenMongo(ctx context.Context, uri string) (*MongoJournal, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(databaseName(uri))
	j := &MongoJournal{
		client:  client,
		runs:    db.Collection("runs"),
		entries: db.Collection("entries"),
	}

	_, err = j.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "file_name", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return j, nil
}

func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultMongoDatabase
}

// runDoc and entryDoc are the stored forms. Seeds are kept as int64 since
// BSON has no unsigned integer type.
type runDoc struct {
	ID         string    `bson:"_id"`
	StartedAt  time.Time `bson:"started_at"`
	FinishedAt time.Time `bson:"finished_at,omitempty"`
	ConfigHash string    `bson:"config_hash"`
	Seed       int64     `bson:"seed"`
	ImagesDir  string    `bson:"images_dir"`
	OutputDir  string    `bson:"output_dir"`
	Images     int       `bson:"images"`
	Kept       int       `bson:"kept"`
	Dropped    int       `bson:"dropped"`
	Failed     int       `bson:"failed"`
}

func toRunDoc(r *Run) runDoc {
	return runDoc{
		ID: r.ID, StartedAt: r.StartedAt, FinishedAt: r.FinishedAt,
		ConfigHash: r.ConfigHash, Seed: int64(r.Seed),
		ImagesDir: r.ImagesDir, OutputDir: r.OutputDir,
		Images: r.Images, Kept: r.Kept, Dropped: r.Dropped, Failed: r.Failed,
	}
}

func (d runDoc) run() Run {
	return Run{
		ID: d.ID, StartedAt: d.StartedAt.UTC(), FinishedAt: d.FinishedAt,
		ConfigHash: d.ConfigHash, Seed: uint64(d.Seed),
		ImagesDir: d.ImagesDir, OutputDir: d.OutputDir,
		Images: d.Images, Kept: d.Kept, Dropped: d.Dropped, Failed: d.Failed,
	}
}

type entryDoc struct {
	RunID          string   `bson:"run_id"`
	FileName       string   `bson:"file_name"`
	ImageID        int64    `bson:"image_id"`
	Seed           int64    `bson:"seed"`
	Applied        []string `bson:"applied"`
	AnnotationsIn  int      `bson:"annotations_in"`
	AnnotationsOut int      `bson:"annotations_out"`
	Width          int      `bson:"width"`
	Height         int      `bson:"height"`
	CacheHit       bool     `bson:"cache_hit"`
	Error          string   `bson:"error,omitempty"`
}

func toEntryDoc(e Entry) entryDoc {
	return entryDoc{
		RunID: e.RunID, FileName: e.FileName, ImageID: e.ImageID, Seed: int64(e.Seed),
		Applied: e.Applied, AnnotationsIn: e.AnnotationsIn, AnnotationsOut: e.AnnotationsOut,
		Width: e.Width, Height: e.Height, CacheHit: e.CacheHit, Error: e.Error,
	}
}

func (d entryDoc) entry() Entry {
	return Entry{
		RunID: d.RunID, FileName: d.FileName, ImageID: d.ImageID, Seed: uint64(d.Seed),
		Applied: d.Applied, AnnotationsIn: d.AnnotationsIn, AnnotationsOut: d.AnnotationsOut,
		Width: d.Width, Height: d.Height, CacheHit: d.CacheHit, Error: d.Error,
	}
}

// StartRun implements [Journal].
func (j *MongoJournal) StartRun(ctx context.Context, run *Run) error {
	prepareRun(run)
	if _, err := j.runs.InsertOne(ctx, toRunDoc(run)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Record implements [Journal].
func (j *MongoJournal) Record(ctx context.Context, e Entry) error {
	if _, err := j.entries.InsertOne(ctx, toEntryDoc(e)); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// FinishRun implements [Journal].
func (j *MongoJournal) FinishRun(ctx context.Context, run *Run) error {
	run.FinishedAt = time.Now().UTC()
	res, err := j.runs.UpdateByID(ctx, run.ID, bson.M{"$set": bson.M{
		"finished_at": run.FinishedAt,
		"images":      run.Images,
		"kept":        run.Kept,
		"dropped":     run.Dropped,
		"failed":      run.Failed,
	}})
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound(run.ID)
	}
	return nil
}

// Run implements [Journal].
func (j *MongoJournal) Run(ctx context.Context, id string) (*Run, error) {
	var d runDoc
	err := j.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	r := d.run()
	return &r, nil
}

// Runs implements [Journal].
func (j *MongoJournal) Runs(ctx context.Context, limit int) ([]Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := j.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	var docs []runDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}
	runs := make([]Run, len(docs))
	for i, d := range docs {
		runs[i] = d.run()
	}
	return runs, nil
}

// Entries implements [Journal].
func (j *MongoJournal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "file_name", Value: 1}})
	cur, err := j.entries.Find(ctx, bson.M{"run_id": runID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}
	entries := make([]Entry, len(docs))
	for i, d := range docs {
		entries[i] = d.entry()
	}
	return entries, nil
}

// Close implements [Journal].
func (j *MongoJournal) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return j.client.Disconnect(ctx)
}

var _ Journal = (*MongoJournal)(nil)

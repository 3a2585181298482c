package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/app/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	blogsCollection = "blogs"
	usersCollection = "users"
)

// MongoStore owns a MongoDB client and the repositories built on it.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database

	Posts *MongoPostRepository
	Users *MongoUserRepository
}

// OpenMongo connects to uri, verifies the connection and ensures indexes.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	store := &MongoStore{
		client: client,
		db:     db,
		Posts:  NewMongoPostRepository(db),
		Users:  NewMongoUserRepository(db),
	}
	if err := store.Posts.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Clear drops both collections.
func (s *MongoStore) Clear(ctx context.Context) error {
	if err := s.db.Collection(blogsCollection).Drop(ctx); err != nil {
		return err
	}
	return s.db.Collection(usersCollection).Drop(ctx)
}

// MongoPostRepository implements PostRepository on a MongoDB collection.
// Every mutation is a single-document update, which MongoDB applies
// atomically.
type MongoPostRepository struct {
	collection *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection(blogsCollection)}
}

// EnsureIndexes creates the indexes list and listMine sort on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create blog indexes: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.BlogPost) error {
	if post.ID == "" {
		post.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *MongoPostRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (r *MongoPostRepository) List(ctx context.Context, filter PostFilter) ([]*models.BlogPost, error) {
	query := bson.M{}
	if filter.Author != "" {
		query["author"] = filter.Author
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []*models.BlogPost{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoPostRepository) Update(ctx context.Context, id, title, content string, coverImage *string, now time.Time) (*models.BlogPost, error) {
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, editUpdate(title, content, coverImage, now))
}

// touch never moves updatedAt backwards, so it stays at or after createdAt.
func touch(now time.Time) bson.M {
	return bson.M{"updatedAt": now}
}

func editUpdate(title, content string, coverImage *string, now time.Time) bson.M {
	set := bson.M{}
	if t := strings.TrimSpace(title); t != "" {
		set["title"] = t
	}
	if content != "" {
		set["content"] = content
	}
	if coverImage != nil {
		set["coverImage"] = *coverImage
	}
	update := bson.M{"$max": touch(now)}
	if len(set) > 0 {
		update["$set"] = set
	}
	return update
}

func (r *MongoPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) IncrementViews(ctx context.Context, id string, now time.Time) (*models.BlogPost, error) {
	update := bson.M{
		"$inc": bson.M{"views": 1},
		"$max": touch(now),
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

// ToggleLike uses a pipeline update so the membership test and the write
// happen in one server-side operation.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, id, userID string, now time.Time) (*models.BlogPost, bool, error) {
	likes := bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}
	user := bson.D{{Key: "$literal", Value: userID}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "likes", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$in", Value: bson.A{user, likes}}},
				bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: likes},
					{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", user}}}},
				}}},
				bson.D{{Key: "$concatArrays", Value: bson.A{likes, bson.A{user}}}},
			}}}},
			{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{"$updatedAt", now}}}},
		}}},
	}

	post, err := r.findOneAndUpdate(ctx, bson.M{"_id": id}, pipeline)
	if err != nil {
		return nil, false, err
	}
	return post, post.IsLikedBy(userID), nil
}

func (r *MongoPostRepository) PushComment(ctx context.Context, id string, comment models.Comment, now time.Time) (*models.BlogPost, error) {
	if comment.ID == "" {
		comment.ID = primitive.NewObjectID().Hex()
	}
	update := bson.M{
		"$push": bson.M{"comments": bson.M{"$each": bson.A{comment}, "$position": 0}},
		"$max":  touch(now),
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (r *MongoPostRepository) PullComment(ctx context.Context, id, commentID string, now time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "comments._id": commentID},
		bson.M{
			"$pull": bson.M{"comments": bson.M{"_id": commentID}},
			"$max":  touch(now),
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *MongoPostRepository) findOneAndUpdate(ctx context.Context, filter, update interface{}) (*models.BlogPost, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.BlogPost
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post); err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// MongoUserRepository implements UserRepository on a MongoDB collection.
type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(usersCollection)}
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return users, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []*models.User
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	for _, u := range found {
		users[u.ID] = u
	}
	return users, nil
}

func (r *MongoUserRepository) SaveProfile(ctx context.Context, user *models.User) error {
	followers, following := user.Followers, user.Following
	if followers == nil {
		followers = []string{}
	}
	if following == nil {
		following = []string{}
	}
	update := bson.M{
		"$set": bson.M{
			"name":      user.Name,
			"email":     user.Email,
			"avatar":    user.Avatar,
			"bio":       user.Bio,
			"updatedAt": user.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"followers": followers,
			"following": following,
			"createdAt": user.CreatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update, options.Update().SetUpsert(true))
	return err
}

// ToggleFollow flips the follower atomically on the target, then brings the
// follower's following list in line with the result. Both are single
// document updates.
func (r *MongoUserRepository) ToggleFollow(ctx context.Context, targetID, followerID string, now time.Time) (*models.User, bool, error) {
	followers := bson.D{{Key: "$ifNull", Value: bson.A{"$followers", bson.A{}}}}
	follower := bson.D{{Key: "$literal", Value: followerID}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "followers", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$in", Value: bson.A{follower, followers}}},
				bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: followers},
					{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", follower}}}},
				}}},
				bson.D{{Key: "$concatArrays", Value: bson.A{followers, bson.A{follower}}}},
			}}}},
			{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{"$updatedAt", now}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var target models.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": targetID}, pipeline, opts).Decode(&target); err != nil {
		return nil, false, notFound(err)
	}
	following := target.HasFollower(followerID)

	op := "$pull"
	if following {
		op = "$addToSet"
	}
	update := bson.M{
		op:     bson.M{"following": targetID},
		"$max": touch(now),
		"$setOnInsert": bson.M{
			"name":      "",
			"email":     "",
			"avatar":    "",
			"bio":       "",
			"followers": bson.A{},
			"createdAt": now,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": followerID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, false, err
	}
	return &target, following, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

package mongostore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/eventplanner/twofactor/svc/twofactor"
)

const DefaultCollection = "users"

var (
	ErrInvalidDocument     = errors.New("invalid user document")
	ErrFailedToEnsureIndex = errors.New("failed to create users index")
)

// Store keeps two-factor records inside MongoDB user documents.
// It implements twofactor.Storage and twofactor.CredentialVerifier.
type Store struct {
	users *mongo.Collection
}

type Option func(*options)

type options struct {
	collection string
}

// WithCollection overrides DefaultCollection.
func WithCollection(name string) Option {
	return func(o *options) {
		if name != "" {
			o.collection = name
		}
	}
}

func New(db *mongo.Database, opts ...Option) *Store {
	o := &options{collection: DefaultCollection}
	for _, opt := range opts {
		opt(o)
	}
	return &Store{users: db.Collection(o.collection)}
}

// EnsureIndexes creates the unique email index. Safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: mongooptions.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return errors.Join(ErrFailedToEnsureIndex, err)
	}
	return nil
}

// Create inserts a user with an unconfigured two-factor state.
func (s *Store) Create(ctx context.Context, rec *twofactor.Record, passwordHash []byte) error {
	doc := toDocument(rec, passwordHash)
	doc.Version = 0
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Join(twofactor.ErrEmailTaken, err)
		}
		return err
	}
	rec.Version = 0
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*twofactor.Record, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*twofactor.Record, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: twofactor.NormalizeEmail(email)}})
}

// Update writes the two-factor fields when the stored version still matches rec.Version.
func (s *Store) Update(ctx context.Context, rec *twofactor.Record) error {
	doc := toDocument(rec, nil)

	set := bson.D{
		{Key: "two_factor_enabled", Value: doc.TwoFactorEnabled},
	}
	var unset bson.D
	setOrUnset := func(key string, value any, empty bool) {
		if empty {
			unset = append(unset, bson.E{Key: key, Value: ""})
			return
		}
		set = append(set, bson.E{Key: key, Value: value})
	}
	setOrUnset("two_factor_secret", doc.TwoFactorSecret, doc.TwoFactorSecret == "")
	setOrUnset("two_factor_backup_codes", doc.TwoFactorBackupCodes, len(doc.TwoFactorBackupCodes) == 0)
	setOrUnset("two_factor_setup_date", doc.TwoFactorSetupDate, doc.TwoFactorSetupDate == nil)
	setOrUnset("last_totp_token", doc.LastTOTPToken, doc.LastTOTPToken == "")
	setOrUnset("last_totp_used", doc.LastTOTPUsed, doc.LastTOTPUsed == nil)

	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	res, err := s.users.UpdateOne(ctx, versionFilter(doc.ID, rec.Version), update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.users.CountDocuments(ctx, bson.D{{Key: "_id", Value: doc.ID}})
		if err != nil {
			return err
		}
		if n == 0 {
			return twofactor.ErrNotFound
		}
		return twofactor.ErrConflict
	}

	rec.Version++
	return nil
}

// VerifyPassword compares password with the stored bcrypt hash.
func (s *Store) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	var doc struct {
		PasswordHash string `bson:"password_hash"`
	}
	err := s.users.FindOne(ctx,
		bson.D{{Key: "_id", Value: userID.String()}},
		mongooptions.FindOne().SetProjection(bson.D{{Key: "password_hash", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return twofactor.ErrInvalidCredential
		}
		return err
	}
	return twofactor.ComparePassword([]byte(doc.PasswordHash), password)
}

func (s *Store) findOne(ctx context.Context, filter bson.D) (*twofactor.Record, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, twofactor.ErrNotFound
		}
		return nil, err
	}
	rec, err := toRecord(doc)
	if err != nil {
		return nil, errors.Join(ErrInvalidDocument, err)
	}
	return rec, nil
}

// versionFilter matches the document at the given version. Documents created outside
// this store carry no version field and count as version 0.
func versionFilter(id string, version int64) bson.D {
	if version != 0 {
		return bson.D{
			{Key: "_id", Value: id},
			{Key: "version", Value: version},
		}
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "version", Value: int64(0)}},
			bson.D{{Key: "version", Value: bson.D{{Key: "$exists", Value: false}}}},
		}},
	}
}

// internal/app/provider/authp/mongoprovider.go
package authp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/msalazarj/primebug/internal/app/store/resettokens"
	"github.com/msalazarj/primebug/internal/app/system/mailer"
	"github.com/msalazarj/primebug/internal/app/system/normalize"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the provider's password policy floor.
const MinPasswordLength = 8

// resetTokenTTL bounds how long an emailed reset link stays valid.
const resetTokenTTL = 30 * time.Minute

// credential is the stored account document. The _id doubles as the
// identity UID and as the id of the matching profile record.
type credential struct {
	ID           primitive.ObjectID `bson:"_id"`
	Email        string             `bson:"email"`
	DisplayName  string             `bson:"display_name"`
	PasswordHash []byte             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// MongoProvider implements Provider over a credentials collection with
// bcrypt password hashing. Reset tokens are one-time rows with a TTL.
type MongoProvider struct {
	c      *mongo.Collection
	resets *resettokens.Store
	mail   *mailer.Mailer
	log    *zap.Logger
}

// NewMongoProvider builds the provider. mail may be nil in tests; reset
// emails are then skipped (the token is still issued).
func NewMongoProvider(db *mongo.Database, resets *resettokens.Store, mail *mailer.Mailer, logger *zap.Logger) *MongoProvider {
	return &MongoProvider{
		c:      db.Collection("credentials"),
		resets: resets,
		mail:   mail,
		log:    logger,
	}
}

// EnsureIndexes creates the unique email index.
func (p *MongoProvider) EnsureIndexes(ctx context.Context) error {
	_, err := p.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_credentials_email"),
	})
	return err
}

func (p *MongoProvider) SignUp(ctx context.Context, email, password, displayName string) (Identity, error) {
	email = normalize.Email(email)
	displayName = normalize.Name(displayName)
	if email == "" || displayName == "" {
		return Identity{}, &Error{Code: CodeInvalidCredentials, Op: "signup"}
	}
	if len(password) < MinPasswordLength {
		return Identity{}, &Error{Code: CodeWeakPassword, Op: "signup"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, &Error{Code: CodeUnavailable, Op: "signup", Err: err}
	}

	now := time.Now().UTC()
	cred := credential{
		ID:           primitive.NewObjectID(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := p.c.InsertOne(ctx, cred); err != nil {
		if wafflemongo.IsDup(err) {
			return Identity{}, &Error{Code: CodeEmailInUse, Op: "signup"}
		}
		return Identity{}, &Error{Code: CodeUnavailable, Op: "signup", Err: err}
	}
	return Identity{UID: cred.ID, DisplayName: displayName, Email: email}, nil
}

func (p *MongoProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	var cred credential
	err := p.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Same code as a bad password so responses don't leak which
			// emails have accounts.
			return Identity{}, &Error{Code: CodeInvalidCredentials, Op: "signin"}
		}
		return Identity{}, &Error{Code: CodeUnavailable, Op: "signin", Err: err}
	}
	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return Identity{}, &Error{Code: CodeInvalidCredentials, Op: "signin"}
	}
	return Identity{UID: cred.ID, DisplayName: cred.DisplayName, Email: cred.Email}, nil
}

func (p *MongoProvider) SendPasswordReset(ctx context.Context, email string) error {
	var cred credential
	err := p.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &Error{Code: CodeUserNotFound, Op: "send-reset"}
		}
		return &Error{Code: CodeUnavailable, Op: "send-reset", Err: err}
	}

	token, err := generateToken()
	if err != nil {
		return &Error{Code: CodeUnavailable, Op: "send-reset", Err: err}
	}
	expiresAt := time.Now().UTC().Add(resetTokenTTL)
	if err := p.resets.Create(ctx, cred.ID, token, expiresAt); err != nil {
		return &Error{Code: CodeUnavailable, Op: "send-reset", Err: err}
	}

	if p.mail != nil {
		msg := mailer.BuildPasswordResetEmail(mailer.PasswordResetData{
			SiteName:  "PrimeBug",
			Token:     token,
			ExpiresIn: "30 minutes",
		})
		msg.To = cred.Email
		if err := p.mail.Send(msg); err != nil {
			p.log.Error("password reset mail failed",
				zap.String("uid", cred.ID.Hex()),
				zap.Error(err))
			return &Error{Code: CodeUnavailable, Op: "send-reset", Err: err}
		}
	}
	return nil
}

func (p *MongoProvider) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return &Error{Code: CodeWeakPassword, Op: "reset"}
	}
	uid, err := p.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, resettokens.ErrNotFound) {
			return &Error{Code: CodeExpiredToken, Op: "reset"}
		}
		return &Error{Code: CodeUnavailable, Op: "reset", Err: err}
	}
	return p.setPassword(ctx, uid, newPassword, "reset")
}

func (p *MongoProvider) UpdatePassword(ctx context.Context, uid primitive.ObjectID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return &Error{Code: CodeWeakPassword, Op: "update-password"}
	}

	var cred credential
	err := p.c.FindOne(ctx, bson.M{"_id": uid}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &Error{Code: CodeUserNotFound, Op: "update-password"}
		}
		return &Error{Code: CodeUnavailable, Op: "update-password", Err: err}
	}
	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(currentPassword)) != nil {
		// The session's credentials are stale; the user must prove the
		// current password before changing it.
		return &Error{Code: CodeRequiresRecentAuth, Op: "update-password"}
	}
	return p.setPassword(ctx, uid, newPassword, "update-password")
}

func (p *MongoProvider) setPassword(ctx context.Context, uid primitive.ObjectID, password, op string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return &Error{Code: CodeUnavailable, Op: op, Err: err}
	}
	res, err := p.c.UpdateByID(ctx, uid, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return &Error{Code: CodeUnavailable, Op: op, Err: err}
	}
	if res.MatchedCount == 0 {
		return &Error{Code: CodeUserNotFound, Op: op}
	}
	return nil
}

// generateToken returns 32 random bytes hex-encoded.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

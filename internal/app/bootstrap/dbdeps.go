// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/msalazarj/primebug/internal/app/provider/blob"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Blobs         *blob.MinioStore
}

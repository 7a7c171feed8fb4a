package docstore

import (
	"fmt"
)

// Store drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Options selects and configures a Store implementation.
type Options struct {
	Driver     string
	Path       string
	MongoURI   string
	Database   string
	Collection string
}

// Open returns an uninitialized Store for the configured driver.
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite store requires a database path")
		}
		return NewSQLiteStore(opts.Path), nil
	case DriverMongo:
		if opts.MongoURI == "" {
			return nil, fmt.Errorf("mongo store requires a connection URI")
		}
		database, collection := opts.Database, opts.Collection
		if database == "" {
			database = "readaloud"
		}
		if collection == "" {
			collection = "pdfs"
		}
		return NewMongoStore(opts.MongoURI, database, collection), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}

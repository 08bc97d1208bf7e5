package main

import (
	"context"
	"database/sql"

	"callbreak/internal/ports/nakama"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule proxies Nakama initialization to the nakama adapter package.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

// main is never called; the package is loaded as a Nakama plugin via InitModule.
// It exists so `go build ./...` can link this package outside -buildmode=plugin.
func main() {}

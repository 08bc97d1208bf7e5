package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"callbreak/internal/app"
	"callbreak/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// TableService is the table state machine as seen by the RPC layer.
type TableService interface {
	Join(ctx context.Context, userID, typeID string) (*app.JoinResult, error)
	Bid(ctx context.Context, userID string, value int) error
	PlayCard(ctx context.Context, userID string, card domain.Card) error
	Leave(ctx context.Context, userID string) error
	View(ctx context.Context, userID string) (*app.TableView, error)
	Scoreboard(ctx context.Context, userID string) (*app.ScoreboardView, error)
	Disconnect(ctx context.Context, userID string) error
	ListTables(ctx context.Context) ([]domain.Summary, error)
	InspectTable(ctx context.Context, tableID string) (*domain.Table, error)
	ForceClear(ctx context.Context, tableID, reason string) error
	ClearStuckTables(ctx context.Context, olderThan time.Duration) ([]string, error)
}

var (
	tableService    TableService
	adminAuth       *app.AdminAuth
	adminStuckAfter = 30 * time.Minute
)

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcTableJoin:         RpcTableJoinHandler,
		RpcTableBid:          RpcTableBidHandler,
		RpcTablePlayCard:     RpcTablePlayCardHandler,
		RpcTableLeave:        RpcTableLeaveHandler,
		RpcTableState:        RpcTableStateHandler,
		RpcTableScoreboard:   RpcTableScoreboardHandler,
		RpcAdminListTables:   RpcAdminListTablesHandler,
		RpcAdminInspectTable: RpcAdminInspectTableHandler,
		RpcAdminClearTable:   RpcAdminClearTableHandler,
		RpcAdminClearStuck:   RpcAdminClearStuckHandler,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

func callerID(ctx context.Context) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("Authentication required", codeUnauthenticated)
	}
	return userID, nil
}

func service() (TableService, error) {
	if tableService == nil {
		return nil, runtime.NewError("Table service unavailable", codeUnavailable)
	}
	return tableService, nil
}

func decodePayload(payload string, v interface{}) error {
	if strings.TrimSpace(payload) == "" {
		payload = "{}"
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return runtime.NewError("Invalid payload", codeInvalidArgument)
	}
	return nil
}

func respond(logger runtime.Logger, op string, v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("%s: Failed to marshal response: %v", op, err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return string(b), nil
}

// toRuntimeError maps app errors onto Nakama error codes.
func toRuntimeError(logger runtime.Logger, op string, err error) error {
	var rerr *runtime.Error
	switch {
	case errors.As(err, &rerr):
		return rerr
	case errors.Is(err, app.ErrUnauthorized):
		return runtime.NewError("Unauthorized", codeUnauthenticated)
	case errors.Is(err, app.ErrNotFound):
		return runtime.NewError(err.Error(), codeNotFound)
	case errors.Is(err, app.ErrConflict):
		return runtime.NewError(err.Error(), codeAlreadyExists)
	case errors.Is(err, app.ErrInvalidState):
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	case errors.Is(err, app.ErrBusy):
		return runtime.NewError("Table busy, retry", codeUnavailable)
	}
	logger.Error("%s: %v", op, err)
	return runtime.NewError("Internal error", codeInternal)
}

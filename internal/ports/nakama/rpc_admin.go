package nakama

import (
	"context"
	"database/sql"
	"time"

	"callbreak/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// adminRequest is shared by every admin RPC. Unused fields are ignored.
type adminRequest struct {
	Token        string `json:"token"`
	TableID      string `json:"table_id"`
	Reason       string `json:"reason"`
	OlderThanSec int64  `json:"older_than_sec"`
}

type clearedResponse struct {
	Cleared []string `json:"cleared"`
}

// authorizeAdmin decodes the payload and verifies its admin token.
func authorizeAdmin(logger runtime.Logger, op, payload string) (adminRequest, TableService, error) {
	var req adminRequest
	if err := decodePayload(payload, &req); err != nil {
		return req, nil, err
	}
	subject, err := adminAuth.Verify(req.Token)
	if err != nil {
		logger.Warn("%s: Rejected admin token: %v", op, err)
		return req, nil, toRuntimeError(logger, op, err)
	}
	svc, err := service()
	if err != nil {
		return req, nil, err
	}
	logger.Info("%s: Authorized admin %s", op, subject)
	return req, svc, nil
}

// RpcAdminListTablesHandler lists every live table.
// Payload: {"token": "..."}
func RpcAdminListTablesHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	_, svc, err := authorizeAdmin(logger, "AdminListTables", payload)
	if err != nil {
		return "", err
	}
	tables, err := svc.ListTables(ctx)
	if err != nil {
		return "", toRuntimeError(logger, "AdminListTables", err)
	}
	return respond(logger, "AdminListTables", struct {
		Tables []domain.Summary `json:"tables"`
	}{Tables: tables})
}

// RpcAdminInspectTableHandler returns a table with every hand visible.
// Payload: {"token": "...", "table_id": "..."}
func RpcAdminInspectTableHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, svc, err := authorizeAdmin(logger, "AdminInspectTable", payload)
	if err != nil {
		return "", err
	}
	if req.TableID == "" {
		return "", runtime.NewError("table_id required", codeInvalidArgument)
	}
	table, err := svc.InspectTable(ctx, req.TableID)
	if err != nil {
		return "", toRuntimeError(logger, "AdminInspectTable", err)
	}
	return respond(logger, "AdminInspectTable", table)
}

// RpcAdminClearTableHandler force-clears one table.
// Payload: {"token": "...", "table_id": "...", "reason": "..."}
func RpcAdminClearTableHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, svc, err := authorizeAdmin(logger, "AdminClearTable", payload)
	if err != nil {
		return "", err
	}
	if req.TableID == "" {
		return "", runtime.NewError("table_id required", codeInvalidArgument)
	}
	if req.Reason == "" {
		req.Reason = "admin"
	}
	if err := svc.ForceClear(ctx, req.TableID, req.Reason); err != nil {
		return "", toRuntimeError(logger, "AdminClearTable", err)
	}
	logger.Info("AdminClearTable: Cleared table %s (%s)", req.TableID, req.Reason)
	return respond(logger, "AdminClearTable", clearedResponse{Cleared: []string{req.TableID}})
}

// RpcAdminClearStuckHandler clears every table idle for longer than the threshold.
// Payload: {"token": "...", "older_than_sec": 1800}
func RpcAdminClearStuckHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, svc, err := authorizeAdmin(logger, "AdminClearStuck", payload)
	if err != nil {
		return "", err
	}
	olderThan := adminStuckAfter
	if req.OlderThanSec > 0 {
		olderThan = time.Duration(req.OlderThanSec) * time.Second
	}
	cleared, err := svc.ClearStuckTables(ctx, olderThan)
	if err != nil {
		return "", toRuntimeError(logger, "AdminClearStuck", err)
	}
	logger.Info("AdminClearStuck: Cleared %d tables idle for %s", len(cleared), olderThan)
	return respond(logger, "AdminClearStuck", clearedResponse{Cleared: cleared})
}

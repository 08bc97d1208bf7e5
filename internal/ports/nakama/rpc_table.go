package nakama

import (
	"context"
	"database/sql"

	"callbreak/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

type joinRequest struct {
	TableType string `json:"table_type"`
}

type bidRequest struct {
	Bid int `json:"bid"`
}

type playCardRequest struct {
	Suit string `json:"suit"`
	Rank int    `json:"rank"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// RpcTableJoinHandler seats the caller at an open table of the requested type.
// Payload: {"table_type": "classic"}
func RpcTableJoinHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	svc, err := service()
	if err != nil {
		return "", err
	}
	var req joinRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if req.TableType == "" {
		return "", runtime.NewError("table_type required", codeInvalidArgument)
	}

	res, err := svc.Join(ctx, userID, req.TableType)
	if err != nil {
		logger.Warn("TableJoin [User:%s]: %v", userID, err)
		return "", toRuntimeError(logger, "TableJoin", err)
	}
	logger.Info("TableJoin [User:%s]: Seated at table %s seat %d", userID, res.TableID, res.Seat)
	return respond(logger, "TableJoin", res)
}

// RpcTableBidHandler submits the caller's bid.
// Payload: {"bid": 3}
func RpcTableBidHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	svc, err := service()
	if err != nil {
		return "", err
	}
	var req bidRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if req.Bid < domain.MinBid || req.Bid > domain.MaxBid {
		return "", runtime.NewError("bid must be between 1 and 13", codeInvalidArgument)
	}

	if err := svc.Bid(ctx, userID, req.Bid); err != nil {
		return "", toRuntimeError(logger, "TableBid", err)
	}
	return respond(logger, "TableBid", okResponse{OK: true})
}

// RpcTablePlayCardHandler plays a card from the caller's hand.
// Payload: {"suit": "S", "rank": 14}
func RpcTablePlayCardHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	svc, err := service()
	if err != nil {
		return "", err
	}
	var req playCardRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	card, ok := cardFromRequest(req)
	if !ok {
		return "", runtime.NewError("Invalid card", codeInvalidArgument)
	}

	if err := svc.PlayCard(ctx, userID, card); err != nil {
		return "", toRuntimeError(logger, "TablePlayCard", err)
	}
	return respond(logger, "TablePlayCard", okResponse{OK: true})
}

// RpcTableLeaveHandler removes the caller from their table.
func RpcTableLeaveHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	svc, err := service()
	if err != nil {
		return "", err
	}

	if err := svc.Leave(ctx, userID); err != nil {
		return "", toRuntimeError(logger, "TableLeave", err)
	}
	logger.Info("TableLeave [User:%s]: Left table", userID)
	return respond(logger, "TableLeave", okResponse{OK: true})
}

// RpcTableStateHandler returns the caller's view of their table. Calling it
// after a disconnect marks the seat present again.
func RpcTableStateHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	svc, err := service()
	if err != nil {
		return "", err
	}

	view, err := svc.View(ctx, userID)
	if err != nil {
		return "", toRuntimeError(logger, "TableState", err)
	}
	return respond(logger, "TableState", view)
}

// RpcTableScoreboardHandler returns the scores of the caller's table.
func RpcTableScoreboardHandler(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	svc, err := service()
	if err != nil {
		return "", err
	}

	board, err := svc.Scoreboard(ctx, userID)
	if err != nil {
		return "", toRuntimeError(logger, "TableScoreboard", err)
	}
	return respond(logger, "TableScoreboard", board)
}

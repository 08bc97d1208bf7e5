package nakama

import (
	"context"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// OnSessionEnd marks the user's seat absent so their turns are auto-played
// until they fetch the table state again.
func OnSessionEnd(ctx context.Context, logger runtime.Logger, evt *api.Event) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" || tableService == nil {
		return
	}
	if err := tableService.Disconnect(ctx, userID); err != nil {
		logger.Warn("OnSessionEnd [User:%s]: Failed to mark disconnect: %v", userID, err)
		return
	}
	logger.Debug("OnSessionEnd [User:%s]: Seat marked absent", userID)
}

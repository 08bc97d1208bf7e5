package nakama

// Client RPC ids.
const (
	RpcTableJoin       = "table_join"
	RpcTableBid        = "table_bid"
	RpcTablePlayCard   = "table_play_card"
	RpcTableLeave      = "table_leave"
	RpcTableState      = "table_state"
	RpcTableScoreboard = "table_scoreboard"
)

// Admin RPC ids. Each payload carries a signed admin token.
const (
	RpcAdminListTables   = "admin_list_tables"
	RpcAdminInspectTable = "admin_inspect_table"
	RpcAdminClearTable   = "admin_clear_table"
	RpcAdminClearStuck   = "admin_clear_stuck"
)

// Notification codes for server events. Nakama reserves codes <= 0.
const (
	CodeJoined            = 101
	CodeRoundStarted      = 102
	CodeCardsDealt        = 103 // sent privately
	CodeBidTurn           = 104
	CodeBidResult         = 105
	CodeTurnToPlay        = 106
	CodeCardPlayed        = 107
	CodeTrickWon          = 108
	CodeRoundEnded        = 109
	CodeGameEnded         = 110
	CodePlayerLeft        = 111
	CodeTableExpired      = 112
	CodePlayerOffline     = 113
	CodePlayerReconnected = 114
	CodeTableCleared      = 115
)

const (
	// WalletCurrency is the wallet key stakes and prizes move through.
	WalletCurrency = "gold"

	historyCollection = "callbreak_history"
	configPath        = "data/callbreak.json"
)

// gRPC status codes understood by Nakama clients.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeAlreadyExists      = 6
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnavailable        = 14
	codeUnauthenticated    = 16
)

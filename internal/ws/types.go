package ws

const (
	// client - server
	MsgPing   = "ping"
	MsgSubmit = "submit"
	MsgWager  = "wager"

	// server - client
	MsgReady              = "ready"
	MsgPong               = "pong"
	MsgError              = "error"
	MsgGameCreated        = "game_created"
	MsgWagerSet           = "wager_set"
	MsgSubmissionRecorded = "submission_recorded"
	MsgGameStatusChanged  = "game_status_changed"
)

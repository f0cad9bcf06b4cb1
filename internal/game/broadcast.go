package game

// Broadcaster is the engine's view of the transport layer. Room
// membership is owned by the engine: joins and reconnects call
// JoinRoom, the transport only moves bytes.
type Broadcaster interface {
	EmitToRoom(code, event string, payload interface{})
	EmitToConn(connID, event string, payload interface{})
	EmitToAll(event string, payload interface{})
	JoinRoom(code, connID string)
	LeaveRoom(code, connID string)
}

// Events produced by the engine.
const (
	EventQuestion           = "question"
	EventHostQuestion       = "hostQuestion"
	EventTimer              = "timer"
	EventAnswerReceived     = "answerReceived"
	EventShowExplanation    = "showExplanation"
	EventShowLeaderboard    = "showLeaderboard"
	EventGameOver           = "game_over"
	EventPlayerJoined       = "playerJoined"
	EventPlayerDisconnected = "playerDisconnected"
	EventHostRestored       = "hostSessionRestored"
	EventPlayerRestored     = "playerSessionRestored"
	EventSessionExpired     = "sessionExpired"
)

// emit is one deferred broadcast, collected while the registry lock is
// held and flushed after the in-memory transition commits.
type emit struct {
	room    string
	conn    string
	event   string
	payload interface{}
}

func roomEmit(code, event string, payload interface{}) emit {
	return emit{room: code, event: event, payload: payload}
}

func connEmit(connID, event string, payload interface{}) emit {
	return emit{conn: connID, event: event, payload: payload}
}

func (e *Engine) flush(fx []emit) {
	for _, m := range fx {
		switch {
		case m.conn != "":
			e.bus.EmitToConn(m.conn, m.event, m.payload)
		case m.room != "":
			e.bus.EmitToRoom(m.room, m.event, m.payload)
		default:
			e.bus.EmitToAll(m.event, m.payload)
		}
	}
}

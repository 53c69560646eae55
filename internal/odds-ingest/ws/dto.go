package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type      string `json:"type"`
	Candidate string `json:"candidate"` // sobrenome ou "*" para todos
}

// Wildcard inscreve o cliente em todos os candidatos
const Wildcard = "*"

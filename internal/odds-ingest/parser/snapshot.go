package parser

// Snapshot é o mapeamento candidato -> valor bruto (texto) de uma leitura do feed.
// Mantém a ordem do documento para que a reconciliação seja determinística.
type Snapshot struct {
	keys   []string
	values map[string]string
}

func NewSnapshot() *Snapshot {
	return &Snapshot{values: make(map[string]string)}
}

// Set grava o valor; chave repetida mantém a primeira posição e fica com o último valor
func (s *Snapshot) Set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *Snapshot) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys devolve uma cópia das chaves em ordem de documento
func (s *Snapshot) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *Snapshot) Len() int { return len(s.keys) }

// Map devolve uma cópia sem ordem, usada na resposta JSON do /electiondata
func (s *Snapshot) Map() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

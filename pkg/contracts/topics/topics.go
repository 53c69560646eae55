package topics

const (
	// Odds por candidato
	CandidateOdds = "candidate_odds_updates"

	// Resumo de cada execução de ingestão
	IngestionRuns = "ingestion_runs"

	// Redis Pub/Sub (broadcast para o /ws)
	CandidateBroadcast = "candidate_odds_broadcast"
)

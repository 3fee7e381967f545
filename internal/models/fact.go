package models

// FactRecord is one live fact in a user's long-term memory.
// The ID is generated at insertion time and doubles as the fact's vector id
// in the facts namespace, so removal never has to re-derive an id by
// re-embedding the fact text.
type FactRecord struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// IngestedTurn is the payload published to the ingestion topic after a
// completed chat turn. The memory service consumes it and extracts facts
// out of band; the synchronous query path never does.
type IngestedTurn struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

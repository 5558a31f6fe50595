package db

import "fmt"

// SchemaSQL renders the schema DDL. embedDim sizes the HNSW index on
// document_chunk.embedding and must match the embedding model.
func SchemaSQL(embedDim int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- BOT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS bot SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS workspace_id ON bot TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS name ON bot TYPE string;
    DEFINE FIELD IF NOT EXISTS embed_key ON bot TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON bot TYPE string DEFAULT "training";
    DEFINE FIELD IF NOT EXISTS last_crawl_at ON bot TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS created_at ON bot TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS bot_embed_key ON bot FIELDS embed_key UNIQUE;

    -- ==========================================================================
    -- SOURCE TABLE (one crawl job per row)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS source SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS bot ON source TYPE record<bot>;
    DEFINE FIELD IF NOT EXISTS start_url ON source TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON source TYPE string DEFAULT "queued";
    DEFINE FIELD IF NOT EXISTS last_error ON source TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS last_crawl_at ON source TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS claimed_at ON source TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS pages_total ON source TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS pages_crawled ON source TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS created_at ON source TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS source_status ON source FIELDS status;
    DEFINE INDEX IF NOT EXISTS source_bot ON source FIELDS bot;

    -- ==========================================================================
    -- DOCUMENT_CHUNK TABLE (embedded page windows)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS document_chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS bot ON document_chunk TYPE record<bot>;
    DEFINE FIELD IF NOT EXISTS source ON document_chunk TYPE record<source>;
    DEFINE FIELD IF NOT EXISTS url ON document_chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS chunk_index ON document_chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS title ON document_chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON document_chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON document_chunk TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created_at ON document_chunk TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS document_chunk_bot ON document_chunk FIELDS bot;
    DEFINE INDEX IF NOT EXISTS document_chunk_unique ON document_chunk FIELDS bot, url, chunk_index UNIQUE;
    DEFINE INDEX IF NOT EXISTS document_chunk_embedding ON document_chunk FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- CONVERSATION + MESSAGE TABLES
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS bot ON conversation TYPE record<bot>;
    DEFINE FIELD IF NOT EXISTS channel ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS user_id ON conversation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS visitor_id ON conversation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON conversation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS conversation_bot ON conversation FIELDS bot;

    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation ON message TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON message TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS message_conversation ON message FIELDS conversation;
`, embedDim)
}

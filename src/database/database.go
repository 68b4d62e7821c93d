package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/lossfolio/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// InitDB opens the sqlite database and ensures the upload store schema.
// Uploaded transaction batches are the only persisted state; calculation
// results live in the in-memory result cache.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Ensuring database schema", "databasePath", databasePath)
	} else {
		stdlog.Println("Ensuring database schema for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		settlement_type TEXT NOT NULL,
		transaction_count INTEGER NOT NULL,
		row_count INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		upload_id TEXT NOT NULL,
		txn_id TEXT NOT NULL,
		date TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		type TEXT NOT NULL,
		entity TEXT,
		fund_name TEXT,
		security_id TEXT,
		comment TEXT,
		FOREIGN KEY(upload_id) REFERENCES uploads(id),
		UNIQUE(upload_id, txn_id)
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_upload ON transactions(upload_id);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quiz-class/internal/logger"

	_ "github.com/godror/godror" // Oracle driver for the migration path
	"go.uber.org/zap"
)

// NewMigrateOracleDB opens a plain database/sql connection for running DDL.
// Migrations go over godror; the application pool uses go-ora.
func NewMigrateOracleDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("godror", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	return db, nil
}

// RunMigrations executes every *.up.sql file in migrationsDir in filename
// order. Files hold plain DDL statements separated by semicolons; PL/SQL
// blocks are not supported. Statements whose object already exists are
// skipped, so rerunning against a migrated schema is safe.
func RunMigrations(db *sql.DB, migrationsDir string) error {
	appLogger := logger.Get()

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".up.sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", file.Name(), err)
		}

		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				if isAlreadyExists(err) {
					appLogger.Debug("Skipping already applied statement", zap.String("file", file.Name()))
					continue
				}
				return fmt.Errorf("could not execute migration %s: %w", file.Name(), err)
			}
		}

		appLogger.Info("Executed migration", zap.String("file", file.Name()))
	}

	appLogger.Info("Migrations completed successfully")
	return nil
}

// isAlreadyExists reports whether err is Oracle's "name is already used by an
// existing object" (ORA-00955), raised when a CREATE hits an existing table
// or index.
func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ORA-00955")
}

// splitStatements breaks a migration file into single statements, dropping
// empty and comment-only chunks. Oracle drivers execute one statement per
// call.
func splitStatements(content string) []string {
	var stmts []string
	for _, raw := range strings.Split(content, ";") {
		stmt := strings.TrimSpace(raw)
		if stmt == "" || isCommentOnly(stmt) {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

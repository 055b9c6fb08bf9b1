package database

import (
	"context"
	"testing"
)

func TestSchemaValidator_MigratedDatabase(t *testing.T) {
	db := openTestDB(t)
	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	validator := NewSchemaValidator(db)

	if err := validator.Validate(); err != nil {
		t.Errorf("Migrated schema should validate: %v", err)
	}
	if err := validator.ValidateConstraints(); err != nil {
		t.Errorf("Constraints should be enforced: %v", err)
	}
}

func TestSchemaValidator_EmptyDatabase(t *testing.T) {
	db := openTestDB(t)
	validator := NewSchemaValidator(db)

	if err := validator.ValidateTablesExist(); err == nil {
		t.Error("Expected missing tables on an empty database")
	}
	if err := validator.ValidateIndexes(); err == nil {
		t.Error("Expected missing indexes on an empty database")
	}
}

func TestSchemaValidator_ColumnTypeMismatch(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Exec(`CREATE TABLE sessions (token TEXT, user_id TEXT, expires_at TEXT)`); err != nil {
		t.Fatal(err)
	}

	validator := NewSchemaValidator(db)
	err := validator.validateColumns("sessions", map[string]string{"expires_at": "DATETIME"})
	if err == nil {
		t.Error("Expected type mismatch error")
	}

	err = validator.validateColumns("sessions", map[string]string{"missing": "TEXT"})
	if err == nil {
		t.Error("Expected missing column error")
	}
}

func TestSchema_CheckConstraints(t *testing.T) {
	db := openTestDB(t)
	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	if _, err := db.Exec(`INSERT INTO users (id, username, email, password_hash, role) VALUES ('u1', 'u1', 'u1@x', 'h', 'admin')`); err == nil {
		t.Error("Unknown role should violate the check constraint")
	}

	if _, err := db.Exec(`INSERT INTO users (id, username, email, password_hash, role) VALUES ('s1', 's1', 's1@x', 'h', 'student')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO emotion_entries (id, student_id, emotion, intensity) VALUES ('e1', 's1', 'happy', 11)`); err == nil {
		t.Error("Intensity above 10 should violate the check constraint")
	}
	if _, err := db.Exec(`INSERT INTO emotion_entries (id, student_id, emotion, intensity) VALUES ('e2', 's1', 'bored', 5)`); err == nil {
		t.Error("Unknown emotion should violate the check constraint")
	}
}

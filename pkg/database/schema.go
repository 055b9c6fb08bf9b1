package database

import (
	"database/sql"
	"fmt"
)

// SchemaValidator provides database schema validation functionality
// ARCHITECTURAL DISCOVERY: Separate validation component enables testing
// and deployment verification without coupling to the migration runner
type SchemaValidator struct {
	db *sql.DB
}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator(db *sql.DB) *SchemaValidator {
	return &SchemaValidator{db: db}
}

// RequiredTables lists every table the application reads or writes
var RequiredTables = []string{
	"users",
	"parent_children",
	"courses",
	"course_enrollments",
	"assignments",
	"assignment_submissions",
	"announcements",
	"timetable_entries",
	"emotion_entries",
	"direct_messages",
	"meetings",
	"school_events",
	"sessions",
	"goose_db_version",
}

// Validate runs every schema check
func (v *SchemaValidator) Validate() error {
	if err := v.ValidateTablesExist(); err != nil {
		return err
	}
	if err := v.ValidateTableStructure(); err != nil {
		return err
	}
	return v.ValidateIndexes()
}

// ValidateTablesExist verifies that all required tables exist
// FUNCTIONAL DISCOVERY: Explicit table validation prevents runtime errors
// from missing tables during database operations
func (v *SchemaValidator) ValidateTablesExist() error {
	for _, table := range RequiredTables {
		exists, err := v.tableExists(table)
		if err != nil {
			return fmt.Errorf("error checking table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist", table)
		}
	}
	return nil
}

// ValidateTableStructure verifies the columns the access guard and notifier depend on
// TECHNICAL DISCOVERY: Declared types matter for go-sqlite3, which converts
// DATETIME and BOOLEAN columns based on the declaration
func (v *SchemaValidator) ValidateTableStructure() error {
	expected := map[string]map[string]string{
		"parent_children": {
			"parent_id": "TEXT",
			"child_id":  "TEXT",
		},
		"assignments": {
			"id":        "TEXT",
			"course_id": "TEXT",
			"due_date":  "DATETIME",
		},
		"courses": {
			"teacher_id": "TEXT",
			"is_active":  "BOOLEAN",
		},
		"assignment_submissions": {
			"attachments": "BLOB",
			"grade":       "INTEGER",
			"graded_at":   "DATETIME",
		},
		"sessions": {
			"token":      "TEXT",
			"user_id":    "TEXT",
			"expires_at": "DATETIME",
		},
	}

	for table, columns := range expected {
		if err := v.validateColumns(table, columns); err != nil {
			return fmt.Errorf("%s table structure invalid: %w", table, err)
		}
	}
	return nil
}

// ValidateIndexes verifies that all performance indexes exist
func (v *SchemaValidator) ValidateIndexes() error {
	requiredIndexes := map[string]string{
		"idx_parent_children_parent": "Children by parent",
		"idx_enrollments_student":    "Courses by student",
		"idx_assignments_course":     "Assignments by course",
		"idx_emotions_student_time":  "Latest emotions by student",
		"idx_sessions_expires":       "Expired session cleanup",
	}

	for index, purpose := range requiredIndexes {
		exists, err := v.indexExists(index)
		if err != nil {
			return fmt.Errorf("error checking index %s (%s): %w", index, purpose, err)
		}
		if !exists {
			return fmt.Errorf("required index %s (%s) does not exist", index, purpose)
		}
	}
	return nil
}

// ValidateConstraints verifies that referential integrity is enforced
// ARCHITECTURAL DISCOVERY: A parent link to a nonexistent user must be impossible,
// otherwise the access guard could authorize reads for phantom children
func (v *SchemaValidator) ValidateConstraints() error {
	_, err := v.db.Exec(`
		INSERT INTO parent_children (id, parent_id, child_id)
		VALUES ('constraint-probe', 'missing-parent', 'missing-child')
	`)
	if err == nil {
		_, _ = v.db.Exec("DELETE FROM parent_children WHERE id = 'constraint-probe'")
		return fmt.Errorf("foreign key constraint not enforced: parent_children.parent_id")
	}
	return nil
}

// tableExists checks if a table exists in the database
func (v *SchemaValidator) tableExists(tableName string) (bool, error) {
	var count int
	err := v.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		tableName,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// indexExists checks if an index exists in the database
func (v *SchemaValidator) indexExists(indexName string) (bool, error) {
	var count int
	err := v.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?",
		indexName,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// validateColumns checks that a table has the expected columns with correct types
func (v *SchemaValidator) validateColumns(tableName string, expectedColumns map[string]string) error {
	rows, err := v.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	foundColumns := make(map[string]string)
	for rows.Next() {
		var cid int
		var name, dataType string
		var notNull int
		var defaultValue any
		var pk int

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return err
		}
		foundColumns[name] = dataType
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for expectedCol, expectedType := range expectedColumns {
		foundType, exists := foundColumns[expectedCol]
		if !exists {
			return fmt.Errorf("column %s not found", expectedCol)
		}
		if foundType != expectedType {
			return fmt.Errorf("column %s has type %s, expected %s", expectedCol, foundType, expectedType)
		}
	}
	return nil
}

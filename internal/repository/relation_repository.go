package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RelationRepository reads the teacher, parent and student relationships that drive
// visibility scopes. Nothing is cached.
type RelationRepository struct {
	db *sqlx.DB
}

// NewRelationRepository creates the repository.
func NewRelationRepository(db *sqlx.DB) *RelationRepository {
	return &RelationRepository{db: db}
}

// TeacherClassIDs returns classes the teacher supervises or teaches.
func (r *RelationRepository) TeacherClassIDs(ctx context.Context, teacherID string) ([]string, error) {
	const query = `SELECT id FROM classes WHERE supervisor_id = $1
UNION
SELECT class_id FROM class_teachers WHERE teacher_id = $1`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &ids, query, teacherID); err != nil {
		return nil, fmt.Errorf("teacher class ids: %w", err)
	}
	return ids, nil
}

// ParentChildIDs returns the parent's linked students.
func (r *RelationRepository) ParentChildIDs(ctx context.Context, parentID string) ([]string, error) {
	const query = `SELECT student_id FROM parent_students WHERE parent_id = $1 ORDER BY student_id`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &ids, query, parentID); err != nil {
		return nil, fmt.Errorf("parent child ids: %w", err)
	}
	return ids, nil
}

// ParentChildClassIDs returns the classes of the parent's linked students.
func (r *RelationRepository) ParentChildClassIDs(ctx context.Context, parentID string) ([]string, error) {
	const query = `SELECT DISTINCT s.class_id FROM parent_students ps
JOIN students s ON s.id = ps.student_id
WHERE ps.parent_id = $1 AND s.class_id IS NOT NULL`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &ids, query, parentID); err != nil {
		return nil, fmt.Errorf("parent child class ids: %w", err)
	}
	return ids, nil
}

// StudentClassID returns the student's class, or an empty string when unassigned.
func (r *RelationRepository) StudentClassID(ctx context.Context, studentID string) (string, error) {
	const query = `SELECT class_id FROM students WHERE id = $1`
	var classID sql.NullString
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &classID, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("student class id: %w", err)
	}
	return classID.String, nil
}

// ClassParentIDs returns parents of students enrolled in any of the classes.
func (r *RelationRepository) ClassParentIDs(ctx context.Context, classIDs []string) ([]string, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT ps.parent_id FROM parent_students ps
JOIN students s ON s.id = ps.student_id
WHERE s.class_id = ANY($1)`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &ids, query, pq.Array(classIDs)); err != nil {
		return nil, fmt.Errorf("class parent ids: %w", err)
	}
	return ids, nil
}

// StudentParentIDs returns the parents linked to a student.
func (r *RelationRepository) StudentParentIDs(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT parent_id FROM parent_students WHERE student_id = $1 ORDER BY parent_id`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("student parent ids: %w", err)
	}
	return ids, nil
}

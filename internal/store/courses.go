package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/verte-zerg/focusflow/internal/model"
)

// ErrNotFound is returned when a course or material does not exist.
var ErrNotFound = errors.New("not found")

// Courses returns every course, oldest first.
func (s *Store) Courses(ctx context.Context) ([]model.Course, error) {
	courses := []model.Course{}
	err := s.db.SelectContext(ctx, &courses,
		`SELECT id, title, description, created_at FROM courses ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	return courses, nil
}

// Course returns one course by id.
func (s *Store) Course(ctx context.Context, id string) (model.Course, error) {
	var course model.Course
	err := s.db.GetContext(ctx, &course,
		`SELECT id, title, description, created_at FROM courses WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Course{}, ErrNotFound
	}
	if err != nil {
		return model.Course{}, fmt.Errorf("load course: %w", err)
	}
	return course, nil
}

// InsertCourse stores a new course.
func (s *Store) InsertCourse(ctx context.Context, c model.Course) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO courses (id, title, description, created_at)
		 VALUES (:id, :title, :description, :created_at)`, c)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// DeleteCourse removes a course together with its materials.
func (s *Store) DeleteCourse(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM materials WHERE course_id = ?`, id); err != nil {
		return fmt.Errorf("delete materials: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = ErrNotFound
		return err
	}
	return tx.Commit()
}

// Materials returns the materials of a course without file data.
func (s *Store) Materials(ctx context.Context, courseID string) ([]model.Material, error) {
	materials := []model.Material{}
	err := s.db.SelectContext(ctx, &materials,
		`SELECT id, course_id, title, url, file_name, mime, size, pages, '' AS data, created_at
		 FROM materials WHERE course_id = ? ORDER BY created_at ASC, id ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}
	return materials, nil
}

// Material returns one material including its file data.
func (s *Store) Material(ctx context.Context, id string) (model.Material, error) {
	var m model.Material
	err := s.db.GetContext(ctx, &m,
		`SELECT id, course_id, title, url, file_name, mime, size, pages, data, created_at
		 FROM materials WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Material{}, ErrNotFound
	}
	if err != nil {
		return model.Material{}, fmt.Errorf("load material: %w", err)
	}
	return m, nil
}

// InsertMaterial stores a material for an existing course.
func (s *Store) InsertMaterial(ctx context.Context, m model.Material) error {
	if _, err := s.Course(ctx, m.CourseID); err != nil {
		return err
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO materials (id, course_id, title, url, file_name, mime, size, pages, data, created_at)
		 VALUES (:id, :course_id, :title, :url, :file_name, :mime, :size, :pages, :data, :created_at)`, m)
	if err != nil {
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// DeleteMaterial removes one material.
func (s *Store) DeleteMaterial(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

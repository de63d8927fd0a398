package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/blog/internal/models"
	"github.com/crucial707/blog/internal/search"
)

var ErrPostNotFound = errors.New("post not found")

const postColumns = `id, title, body, created_at, updated_at`

// ========================
// REPOSITORY STRUCT
// ========================

type PostRepo struct {
	DB *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db}
}

// ========================
// CREATE POST
// ========================

func (r *PostRepo) Create(ctx context.Context, title, body string) (models.Post, error) {
	var post models.Post
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO posts (title, body)
		 VALUES ($1, $2)
		 RETURNING `+postColumns,
		title, body,
	).Scan(
		&post.ID,
		&post.Title,
		&post.Body,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	return post, err
}

// ========================
// GET POST BY ID
// ========================

func (r *PostRepo) GetByID(ctx context.Context, id int) (models.Post, error) {
	var post models.Post
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 WHERE id = $1`,
		id,
	).Scan(
		&post.ID,
		&post.Title,
		&post.Body,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return post, ErrPostNotFound
	}
	return post, err
}

// ========================
// UPDATE POST BY ID
// ========================

// Update replaces title and body and refreshes updated_at. Concurrent edits are last-write-wins.
func (r *PostRepo) Update(ctx context.Context, id int, title, body string) (models.Post, error) {
	var post models.Post
	err := r.DB.QueryRowContext(ctx,
		`UPDATE posts
		 SET title = $1, body = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+postColumns,
		title, body, id,
	).Scan(
		&post.ID,
		&post.Title,
		&post.Body,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return post, ErrPostNotFound
	}
	return post, err
}

// ========================
// DELETE POST BY ID
// ========================

func (r *PostRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrPostNotFound
	}

	return nil
}

// ========================
// COUNT POSTS
// ========================

func (r *PostRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n)
	return n, err
}

// ========================
// LIST POSTS WITH PAGINATION
// ========================

// ListPage returns posts newest first. id breaks ties between equal timestamps.
func (r *PostRepo) ListPage(ctx context.Context, limit, offset int) ([]models.Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ========================
// SEARCH POSTS
// ========================

// Search runs a prepared filter. A filter that matches nothing skips the database.
func (r *PostRepo) Search(ctx context.Context, f search.Filter, limit int) ([]models.Post, error) {
	if f.Empty() {
		return []models.Post{}, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM posts WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d",
		postColumns, f.Clause, f.NextArg(),
	)
	args := append(append([]any{}, f.Args...), limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

package store

import (
	"database/sql"
	"errors"
	"time"
)

// Image is a still image selectable as a frame source.
type Image struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageRepository provides CRUD operations for images.
type ImageRepository struct {
	db *sql.DB
}

// Images returns the image repository for this store.
func (s *Store) Images() *ImageRepository {
	return &ImageRepository{db: s.db}
}

// Create inserts a new image.
func (r *ImageRepository) Create(img *Image) error {
	img.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO images (id, name, path, created_at) VALUES (?, ?, ?, ?)`,
		img.ID, img.Name, img.Path, img.CreatedAt,
	)
	return err
}

// Upsert inserts img or, when an image with the same name exists, updates its path.
// img.ID is replaced with the stored ID.
func (r *ImageRepository) Upsert(img *Image) error {
	existing, err := r.GetByName(img.Name)
	if errors.Is(err, ErrNotFound) {
		return r.Create(img)
	}
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(`UPDATE images SET path = ? WHERE id = ?`, img.Path, existing.ID); err != nil {
		return err
	}
	img.ID = existing.ID
	img.CreatedAt = existing.CreatedAt
	return nil
}

// GetByName retrieves an image by its name.
func (r *ImageRepository) GetByName(name string) (*Image, error) {
	img := &Image{}
	err := r.db.QueryRow(
		`SELECT id, name, path, created_at FROM images WHERE name = ?`,
		name,
	).Scan(&img.ID, &img.Name, &img.Path, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return img, nil
}

// List retrieves all images ordered by name.
func (r *ImageRepository) List() ([]*Image, error) {
	rows, err := r.db.Query(`SELECT id, name, path, created_at FROM images ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img := &Image{}
		if err := rows.Scan(&img.ID, &img.Name, &img.Path, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return images, nil
}

// Paths returns the image library as a name to path map.
func (r *ImageRepository) Paths() (map[string]string, error) {
	images, err := r.List()
	if err != nil {
		return nil, err
	}
	paths := make(map[string]string, len(images))
	for _, img := range images {
		paths[img.Name] = img.Path
	}
	return paths, nil
}

// Delete removes an image by its ID.
func (r *ImageRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

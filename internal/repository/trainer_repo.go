package repository

import (
	"context"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

type TrainerRepository struct {
	db DBTX
}

func NewTrainerRepository(db DBTX) *TrainerRepository {
	return &TrainerRepository{db: db}
}

func (r *TrainerRepository) Create(ctx context.Context, trainer *models.Trainer) error {
	query := `
		INSERT INTO trainers (user_id, full_name, specialization)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, trainer.UserID, trainer.FullName, trainer.Specialization).
		Scan(&trainer.ID, &trainer.CreatedAt, &trainer.UpdatedAt)
}

func (r *TrainerRepository) GetByID(ctx context.Context, id int64) (*models.Trainer, error) {
	query := `
		SELECT id, user_id, full_name, specialization, created_at, updated_at
		FROM trainers
		WHERE id = $1
	`
	var trainer models.Trainer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&trainer.ID,
		&trainer.UserID,
		&trainer.FullName,
		&trainer.Specialization,
		&trainer.CreatedAt,
		&trainer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trainer, nil
}

func (r *TrainerRepository) GetByUserID(ctx context.Context, userID int64) (*models.Trainer, error) {
	query := `
		SELECT id, user_id, full_name, specialization, created_at, updated_at
		FROM trainers
		WHERE user_id = $1
	`
	var trainer models.Trainer
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&trainer.ID,
		&trainer.UserID,
		&trainer.FullName,
		&trainer.Specialization,
		&trainer.CreatedAt,
		&trainer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trainer, nil
}

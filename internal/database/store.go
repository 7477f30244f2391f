package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"live-placement-backend/internal/model"
	"live-placement-backend/internal/workflow"
)

const uniqueViolation = "23505"

// Store is the PostgreSQL State Store. Each unit of work is one database
// transaction; the student row lock taken first serializes every mutation
// for that student.
type Store struct {
	db *DBinstanceStruct
}

// NewStore wraps db as a workflow.Store
func NewStore(db *DBinstanceStruct) *Store {
	return &Store{db: db}
}

// Atomic runs fn inside a transaction and rolls back when fn fails.
func (s *Store) Atomic(ctx context.Context, fn func(tx workflow.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.NotFound(what, err)
	}
	return err
}

// uniqueConflict maps a duplicate pair insert onto the matching workflow error.
func uniqueConflict(err error, conflict error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return conflict
	}
	return err
}

func (t *gormTx) LockStudent(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	var student model.Student
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, notFound(err, "student")
	}
	return &student, nil
}

func (t *gormTx) LockCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, notFound(err, "company")
	}
	return &company, nil
}

// ShareCompany reads the company under FOR SHARE so a concurrent freeze,
// which takes FOR UPDATE, waits for this unit of work and vice versa.
func (t *gormTx) ShareCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, notFound(err, "company")
	}
	return &company, nil
}

func (t *gormTx) GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := t.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, notFound(err, "company")
	}
	return &company, nil
}

func (t *gormTx) SaveStudent(ctx context.Context, s *model.Student) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

func (t *gormTx) SaveCompany(ctx context.Context, c *model.Company) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (t *gormTx) GetShortlist(ctx context.Context, pair workflow.Pair) (*model.ShortlistRecord, error) {
	var record model.ShortlistRecord
	err := t.db.WithContext(ctx).
		Where("student_id = ? AND company_id = ?", pair.StudentID, pair.CompanyID).
		First(&record).Error
	if err != nil {
		return nil, notFound(err, "shortlist record")
	}
	return &record, nil
}

func (t *gormTx) ListShortlistsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ShortlistRecord, error) {
	var records []model.ShortlistRecord
	err := t.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (t *gormTx) CreateShortlist(ctx context.Context, r *model.ShortlistRecord) error {
	err := t.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
	return uniqueConflict(err, workflow.ErrAlreadyShortlisted)
}

func (t *gormTx) SaveShortlist(ctx context.Context, r *model.ShortlistRecord) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(r).Error
}

func (t *gormTx) DeleteShortlist(ctx context.Context, id uuid.UUID) error {
	return t.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ShortlistRecord{}).Error
}

func (t *gormTx) GetOffer(ctx context.Context, id uuid.UUID) (*model.OfferRecord, error) {
	var offer model.OfferRecord
	if err := t.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error; err != nil {
		return nil, notFound(err, "offer")
	}
	return &offer, nil
}

func (t *gormTx) FindOffer(ctx context.Context, pair workflow.Pair) (*model.OfferRecord, error) {
	var offer model.OfferRecord
	err := t.db.WithContext(ctx).
		Where("student_id = ? AND company_id = ?", pair.StudentID, pair.CompanyID).
		First(&offer).Error
	if err != nil {
		return nil, notFound(err, "offer")
	}
	return &offer, nil
}

func (t *gormTx) CreateOffer(ctx context.Context, o *model.OfferRecord) error {
	err := t.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
	return uniqueConflict(err, workflow.ErrOfferExists)
}

func (t *gormTx) SaveOffer(ctx context.Context, o *model.OfferRecord) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}

func (t *gormTx) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	return t.db.WithContext(ctx).Where("id = ?", id).Delete(&model.OfferRecord{}).Error
}

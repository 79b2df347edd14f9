package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

const patientColumns = `patient_id, user_id, full_name, cnic, gender, date_of_birth,
	phone, address, emergency_contact, allergies, chronic_conditions, created_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (user_id, full_name, cnic, gender, date_of_birth,
			phone, address, emergency_contact, allergies, chronic_conditions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING patient_id
	`
	patient.CreatedAt = time.Now()

	err := r.db.GetContext(ctx, &patient.ID, query,
		patient.UserID,
		patient.FullName,
		patient.CNIC,
		patient.Gender,
		patient.DateOfBirth,
		patient.Phone,
		patient.Address,
		patient.EmergencyContact,
		patient.Allergies,
		patient.ChronicConditions,
		patient.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE patient_id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, translateErr(err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID int64) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE user_id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, userID); err != nil {
		return nil, translateErr(err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET full_name = $1, phone = $2, address = $3, emergency_contact = $4,
		    allergies = $5, chronic_conditions = $6
		WHERE patient_id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		patient.FullName,
		patient.Phone,
		patient.Address,
		patient.EmergencyContact,
		patient.Allergies,
		patient.ChronicConditions,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil && filters.Search != "" {
		query += fmt.Sprintf(" AND (full_name ILIKE $%d OR phone LIKE $%d OR cnic LIKE $%d)",
			argCount, argCount+1, argCount+2)
		like := "%" + filters.Search + "%"
		args = append(args, like, like, like)
		argCount += 3
	}
	if filters != nil && filters.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, *filters.UserID)
		argCount++
	}

	query += " ORDER BY full_name ASC"

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
